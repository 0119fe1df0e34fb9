package b2g

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"carverify/internal/domain"
)

const (
	Namespace     = "http://ppsr.gov.au/schemas/search/v1"
	soapNamespace = "http://schemas.xmlsoap.org/soap/envelope/"

	ActionVehicleSearch = Namespace + "/VehicleSearch"
	ActionHealthCheck   = Namespace + "/HealthCheck"

	searchTypeVIN          = "VIN"
	searchTypeRegistration = "REGISTRATION"
)

// Outbound envelope. Element names carry their prefixes literally so the
// wire shape matches what the registry documents.

type requestEnvelope struct {
	XMLName xml.Name      `xml:"soap:Envelope"`
	SoapNS  string        `xml:"xmlns:soap,attr"`
	PPSRNS  string        `xml:"xmlns:ppsr,attr"`
	Header  requestHeader `xml:"soap:Header"`
	Body    requestBody   `xml:"soap:Body"`
}

type requestHeader struct {
	Auth authentication  `xml:"ppsr:Authentication"`
	Meta requestMetadata `xml:"ppsr:RequestMetadata"`
}

type authentication struct {
	Username string `xml:"ppsr:Username"`
	Password string `xml:"ppsr:Password"`
}

type requestMetadata struct {
	RequestID string `xml:"ppsr:RequestId"`
	Timestamp string `xml:"ppsr:Timestamp"`
}

type requestBody struct {
	Search *vehicleSearchRequest `xml:"ppsr:VehicleSearchRequest"`
	Health *healthCheckRequest   `xml:"ppsr:HealthCheckRequest"`
}

type vehicleSearchRequest struct {
	SearchType       string         `xml:"ppsr:SearchType"`
	Criteria         searchCriteria `xml:"ppsr:SearchCriteria"`
	IssueCertificate bool           `xml:"ppsr:IssueCertificate"`
}

type searchCriteria struct {
	VIN                string `xml:"ppsr:VIN,omitempty"`
	RegistrationNumber string `xml:"ppsr:RegistrationNumber,omitempty"`
	RegistrationState  string `xml:"ppsr:RegistrationState,omitempty"`
}

type healthCheckRequest struct {
	Echo string `xml:"ppsr:Echo"`
}

func newEnvelope(creds Credentials, requestID string, at time.Time, body requestBody) requestEnvelope {
	return requestEnvelope{
		SoapNS: soapNamespace,
		PPSRNS: Namespace,
		Header: requestHeader{
			Auth: authentication{Username: creds.Username, Password: creds.Password},
			Meta: requestMetadata{RequestID: requestID, Timestamp: at.UTC().Format(time.RFC3339)},
		},
		Body: body,
	}
}

func searchBody(id domain.VehicleIdentifier) requestBody {
	req := &vehicleSearchRequest{IssueCertificate: true}
	if id.Type == domain.IdentifierVIN {
		req.SearchType = searchTypeVIN
		req.Criteria.VIN = id.VIN
	} else {
		req.SearchType = searchTypeRegistration
		req.Criteria.RegistrationNumber = id.Rego
		req.Criteria.RegistrationState = string(id.State)
	}
	return requestBody{Search: req}
}

func encodeEnvelope(env requestEnvelope) ([]byte, error) {
	out, err := xml.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// Inbound envelope. Tags carry no namespace so any prefix the registry uses
// is accepted.

type responseEnvelope struct {
	XMLName xml.Name     `xml:"Envelope"`
	Body    responseBody `xml:"Body"`
}

type responseBody struct {
	Search *vehicleSearchResponse `xml:"VehicleSearchResponse"`
	Health *struct{}              `xml:"HealthCheckResponse"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

type vehicleSearchResponse struct {
	CertificateNumber  string                `xml:"CertificateNumber"`
	SearchDate         string                `xml:"SearchDate"`
	VIN                string                `xml:"VIN"`
	RegistrationNumber string                `xml:"RegistrationNumber"`
	RegistrationState  string                `xml:"RegistrationState"`
	StolenStatus       string                `xml:"StolenStatus"`
	WriteOffStatus     string                `xml:"WriteOffStatus"`
	Interests          []securityInterestXML `xml:"SecurityInterest"`
	WrappedInterests   []securityInterestXML `xml:"SecurityInterests>SecurityInterest"`
}

type securityInterestXML struct {
	Type           string `xml:"Type"`
	RegisteredDate string `xml:"RegisteredDate"`
	SecuredParty   string `xml:"SecuredParty"`
	Amount         string `xml:"Amount"`
	Description    string `xml:"Description"`
}

// Fault is a SOAP fault returned with a successful HTTP status.
type Fault struct {
	Code    string
	Message string
}

type SearchResult struct {
	CertificateNumber string
	SearchDate        time.Time
	VIN               string
	Rego              string
	State             domain.State
	IsStolen          bool
	IsWrittenOff      bool
	IsFinanceOwing    bool
	SecurityInterests []domain.SecurityInterest
}

// Response is either a Fault or a Result, never both. RawXML is always set.
type Response struct {
	Fault  *Fault
	Result *SearchResult
	RawXML string
}

// findFault walks the whole document and returns the first SOAP Fault element
// wherever it sits: Header, Body, or nested inside a business response.
func findFault(raw []byte) (*Fault, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Fault" {
			continue
		}
		if start.Name.Space != soapNamespace && start.Name.Space != "" {
			continue
		}
		var f soapFault
		if err := dec.DecodeElement(&f, &start); err != nil {
			return nil, err
		}
		return &Fault{Code: strings.TrimSpace(f.Code), Message: strings.TrimSpace(f.String)}, nil
	}
}

// parseResponse decides fault versus success once, before any business field
// is read. A Fault anywhere in the document wins. Missing business fields are
// tolerated; a body with neither a fault nor a search response is not.
func parseResponse(raw []byte, now time.Time, placeholder func() string) (Response, error) {
	out := Response{RawXML: string(raw)}
	fault, err := findFault(raw)
	if err != nil {
		return out, err
	}
	if fault != nil {
		out.Fault = fault
		return out, nil
	}
	var env responseEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return out, err
	}
	sr := env.Body.Search
	if sr == nil {
		return out, domain.ErrMalformedResponse
	}

	interests := make([]domain.SecurityInterest, 0, len(sr.Interests)+len(sr.WrappedInterests))
	for _, x := range append(sr.Interests, sr.WrappedInterests...) {
		interests = append(interests, x.toDomain())
	}

	res := &SearchResult{
		CertificateNumber: strings.TrimSpace(sr.CertificateNumber),
		SearchDate:        parseDate(sr.SearchDate, now),
		VIN:               strings.TrimSpace(sr.VIN),
		Rego:              strings.TrimSpace(sr.RegistrationNumber),
		State:             domain.State(strings.ToUpper(strings.TrimSpace(sr.RegistrationState))),
		IsStolen:          parseFlag(sr.StolenStatus),
		IsWrittenOff:      parseFlag(sr.WriteOffStatus),
		IsFinanceOwing:    domain.FinanceOwing(interests),
		SecurityInterests: interests,
	}
	if res.CertificateNumber == "" {
		res.CertificateNumber = placeholder()
	}
	out.Result = res
	return out, nil
}

func (x securityInterestXML) toDomain() domain.SecurityInterest {
	si := domain.SecurityInterest{
		Type:           strings.ToUpper(strings.TrimSpace(x.Type)),
		RegisteredDate: strings.TrimSpace(x.RegisteredDate),
		SecuredParty:   strings.TrimSpace(x.SecuredParty),
		Description:    strings.TrimSpace(x.Description),
	}
	if v := strings.TrimSpace(x.Amount); v != "" {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64); err == nil {
			si.Amount = &f
		}
	}
	return si
}

func parseFlag(v string) bool {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "TRUE", "YES", "Y", "1", "STOLEN", "WRITTEN_OFF", "WRITTENOFF", "WRITTEN-OFF":
		return true
	}
	return false
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(v string, fallback time.Time) time.Time {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return fallback
}
