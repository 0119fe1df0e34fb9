package usecase

import (
	"context"

	"carverify/internal/domain"
)

type PPSRSearcher interface {
	SearchVehicle(ctx context.Context, id domain.VehicleIdentifier) (*domain.PPSRResult, error)
}

type NEVDISSearcher interface {
	SearchVehicle(ctx context.Context, id domain.VehicleIdentifier) (*domain.NEVDISResult, error)
}

// PricingQuoter returns nil when no valuation is available.
type PricingQuoter interface {
	GetVehiclePricing(ctx context.Context, req domain.PricingRequest) *domain.VehiclePricing
}

// PPSRAdmin is the credential and reachability surface of the B2G transport.
type PPSRAdmin interface {
	TestConnection(ctx context.Context) bool
	UpdatePassword(ctx context.Context, password string) error
}
