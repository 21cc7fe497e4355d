package account

import (
	"context"

	"github.com/google/uuid"

	id "covault/pkg/domain"
	"covault/pkg/requestcontext"
)

// Provisioner resolves the default credentials account for a user, creating
// it on first use.
type Provisioner struct {
	store Store
}

func NewProvisioner(store Store) *Provisioner {
	return &Provisioner{store: store}
}

// Provision returns the account ID for the user's credentials account. The
// candidate ID is discarded when a concurrent call won the insert race; the
// surviving row's ID is returned either way.
func (p *Provisioner) Provision(ctx context.Context, userID id.UserID) (id.AccountID, error) {
	candidate := NewCredentials(id.AccountID(uuid.New()), userID, requestcontext.Now(ctx))
	acc, err := p.store.GetOrCreate(ctx, candidate)
	if err != nil {
		return id.AccountID{}, err
	}
	return acc.ID, nil
}
