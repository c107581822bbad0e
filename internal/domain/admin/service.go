package admin

import (
	"context"
	"fmt"

	"github.com/ehr/hospital-console/internal/platform/apiclient"
	"github.com/ehr/hospital-console/internal/platform/resource"
)

const Endpoint = "/usuarios"

// Service manages users. Delete deactivates; Purge removes the account.
type Service struct {
	*resource.SoftResource[User, CreateUserRequest, UpdateUserRequest]
}

func NewService(b resource.Backend) *Service {
	return &Service{resource.NewSoft[User, CreateUserRequest, UpdateUserRequest](b, Endpoint)}
}

func (s *Service) ChangePassword(ctx context.Context, id string, req ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	endpoint := apiclient.Path(Endpoint, id, "change-password")
	if err := s.Backend().Post(ctx, endpoint, req, nil); err != nil {
		return fmt.Errorf("post %s: %w", endpoint, err)
	}
	return nil
}

// ListActive returns every active user; the backend does not paginate it.
func (s *Service) ListActive(ctx context.Context) ([]User, error) {
	return s.All(ctx, apiclient.Path(Endpoint, "activos"))
}

// ToggleStatus sets the activo flag and returns the updated user.
func (s *Service) ToggleStatus(ctx context.Context, id string, active bool) (*User, error) {
	endpoint := apiclient.Path(Endpoint, id, "toggle-status")
	var u User
	if err := s.Backend().Patch(ctx, endpoint, map[string]bool{"activo": active}, &u); err != nil {
		return nil, fmt.Errorf("patch %s: %w", endpoint, err)
	}
	return &u, nil
}
