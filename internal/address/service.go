package address

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/angelmondragon/kickfinderz-backend/pkg/db/models"
	"github.com/angelmondragon/kickfinderz-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput is a validated new address.
type CreateInput struct {
	Label      string
	Line1      string
	Line2      *string
	City       string
	State      string
	PostalCode string
	Country    string
	IsDefault  bool
}

type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Address, error)
	Owns(ctx context.Context, userID, addressID uuid.UUID) (bool, error)
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeUnauthorized, "user identity missing")
	}
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "failed to list addresses")
	}
	return out, nil
}

// Create stores a new address. The first address a user saves becomes the
// default; marking another one default clears the previous default.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeUnauthorized, "user identity missing")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	addr := &models.Address{
		UserID:     userID,
		Label:      strings.TrimSpace(input.Label),
		Line1:      strings.TrimSpace(input.Line1),
		Line2:      trimmedPtr(input.Line2),
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(input.Country)),
		IsDefault:  input.IsDefault,
	}
	if addr.Label == "" {
		addr.Label = "Home"
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if count == 0 {
			addr.IsDefault = true
		}
		if addr.IsDefault && count > 0 {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		if err := repo.Create(ctx, addr); err != nil {
			return err
		}
		// is_default has a column default; write false explicitly.
		if !addr.IsDefault {
			return tx.WithContext(ctx).Model(addr).Update("is_default", false).Error
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "failed to save address")
	}
	return addr, nil
}

func (s *service) Owns(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	if userID == uuid.Nil || addressID == uuid.Nil {
		return false, nil
	}
	return s.repo.Exists(ctx, userID, addressID)
}

func validateInput(input CreateInput) error {
	missing := []string{}
	for field, value := range map[string]string{
		"line1":       input.Line1,
		"city":        input.City,
		"state":       input.State,
		"postal_code": input.PostalCode,
		"country":     input.Country,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return errors.New(errors.CodeValidation, "address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	if len(strings.TrimSpace(input.Country)) != 2 {
		return errors.New(errors.CodeValidation, "country must be a two-letter code")
	}
	return nil
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
