// Package mockdata holds the deterministic vehicle scenarios served by the
// mock PPSR, NEVDIS and pricing providers outside production. The same
// identifier always maps to the same scenario so test purchases replay.
package mockdata

import (
	"hash/fnv"

	"carverify/internal/domain"
)

type Scenario struct {
	Name string

	Stolen       bool
	WrittenOff   bool
	WriteOffType domain.WriteOffType
	// Interests drive the finance-owing flag through domain.FinanceOwing.
	Interests []domain.SecurityInterest

	// Registry reports its own view, which may flag a vehicle PPSR missed.
	RegistryStolen     bool
	RegistryWrittenOff bool

	Make         string
	Model        string
	Variant      string
	Year         int
	BodyType     string
	Colour       string
	EngineNumber string
	Compliance   string
	Odometer     int

	TradeValue  float64
	Confidence  domain.PriceConfidence
	PriceChange domain.PriceChange
	Listings    int
}

func amount(v float64) *float64 { return &v }

var catalogue = []Scenario{
	{
		Name:         "clean",
		Make:         "Toyota",
		Model:        "Corolla",
		Variant:      "Ascent Sport",
		Year:         2019,
		BodyType:     "Hatchback",
		Colour:       "White",
		EngineNumber: "2ZR4417821",
		Compliance:   "03/2019",
		Odometer:     62000,
		TradeValue:   17500,
		Confidence:   domain.ConfidenceHigh,
		PriceChange:  domain.PriceStable,
		Listings:     148,
	},
	{
		Name: "finance-owing",
		Interests: []domain.SecurityInterest{{
			Type:           domain.SecurityInterestFinance,
			RegisteredDate: "2021-08-14",
			SecuredParty:   "Westpac Banking Corporation",
			Amount:         amount(18450),
			Description:    "Consumer motor vehicle loan",
		}},
		Make:         "Mazda",
		Model:        "CX-5",
		Variant:      "Maxx Sport",
		Year:         2021,
		BodyType:     "SUV",
		Colour:       "Soul Red",
		EngineNumber: "PY10593312",
		Compliance:   "06/2021",
		Odometer:     41000,
		TradeValue:   27800,
		Confidence:   domain.ConfidenceHigh,
		PriceChange:  domain.PriceStable,
		Listings:     96,
	},
	{
		Name:           "stolen",
		Stolen:         true,
		RegistryStolen: true,
		Make:           "Holden",
		Model:          "Commodore",
		Variant:        "SS",
		Year:           2016,
		BodyType:       "Sedan",
		Colour:         "Black",
		EngineNumber:   "LS3A118822",
		Compliance:     "11/2015",
		Odometer:       118000,
		TradeValue:     16200,
		Confidence:     domain.ConfidenceMedium,
		PriceChange:    domain.PriceDecreasing,
		Listings:       61,
	},
	{
		Name:               "repairable-write-off",
		WrittenOff:         true,
		WriteOffType:       domain.WriteOffRepairable,
		RegistryWrittenOff: true,
		Make:               "Hyundai",
		Model:              "i30",
		Variant:            "Active",
		Year:               2017,
		BodyType:           "Hatchback",
		Colour:             "Silver",
		EngineNumber:       "G4NA7731290",
		Compliance:         "02/2017",
		Odometer:           154000,
		TradeValue:         8900,
		Confidence:         domain.ConfidenceMedium,
		PriceChange:        domain.PriceDecreasing,
		Listings:           83,
	},
	{
		Name:               "total-loss",
		WrittenOff:         true,
		WriteOffType:       domain.WriteOffTotalLoss,
		RegistryWrittenOff: true,
		Interests: []domain.SecurityInterest{{
			Type:           "LEASE",
			RegisteredDate: "2019-02-03",
			SecuredParty:   "Toyota Fleet Management",
			Description:    "Novated lease",
		}},
		Make:         "Ford",
		Model:        "Ranger",
		Variant:      "XLT",
		Year:         2018,
		BodyType:     "Utility",
		Colour:       "Grey",
		EngineNumber: "P5AT1120447",
		Compliance:   "09/2018",
		Odometer:     187000,
		TradeValue:   12400,
		Confidence:   domain.ConfidenceMedium,
		PriceChange:  domain.PriceStable,
		Listings:     122,
	},
	{
		Name:               "hail-damage",
		RegistryWrittenOff: true,
		WriteOffType:       domain.WriteOffHailDamage,
		Make:               "Subaru",
		Model:              "Forester",
		Variant:            "2.5i-L",
		Year:               2020,
		BodyType:           "SUV",
		Colour:             "Blue",
		EngineNumber:       "FB25D66103",
		Compliance:         "04/2020",
		Odometer:           52000,
		TradeValue:         24100,
		Confidence:         domain.ConfidenceMedium,
		PriceChange:        domain.PriceIncreasing,
		Listings:           57,
	},
	{
		Name:         "rare-import",
		Make:         "Alpina",
		Model:        "B3",
		Year:         2015,
		BodyType:     "Sedan",
		Colour:       "Green",
		EngineNumber: "N55B30A0091",
		Compliance:   "07/2015",
		Odometer:     38000,
		TradeValue:   41000,
		Confidence:   domain.ConfidenceLow,
		PriceChange:  domain.PriceStable,
		Listings:     3,
	},
}

// For returns the scenario keyed by the identifier. Selection is an FNV-1a
// hash of id.Key() over the catalogue.
func For(id domain.VehicleIdentifier) Scenario {
	return ForKey(id.Key())
}

func ForKey(key string) Scenario {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return catalogue[int(h.Sum32()%uint32(len(catalogue)))]
}

// Named looks a scenario up by name; tests use it to pin behaviour.
func Named(name string) (Scenario, bool) {
	for _, s := range catalogue {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

func Len() int { return len(catalogue) }

// FinanceOwing derives the PPSR finance flag from the scenario's interests.
func (s Scenario) FinanceOwing() bool {
	return domain.FinanceOwing(s.Interests)
}

// SecurityInterests returns a copy so callers never share the catalogue slice.
func (s Scenario) SecurityInterests() []domain.SecurityInterest {
	out := make([]domain.SecurityInterest, len(s.Interests))
	for i, si := range s.Interests {
		out[i] = si
		if si.Amount != nil {
			out[i].Amount = amount(*si.Amount)
		}
	}
	return out
}
