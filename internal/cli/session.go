package cli

import (
	"context"
	"fmt"

	"nomorewaste/pkg/apiclient"
	"nomorewaste/pkg/fridge"
)

// openSession loads the member's household into a fresh session.
func openSession(ctx context.Context, client *apiclient.Client, opts ...fridge.Option) (*fridge.Session, error) {
	_, email, err := client.Me(ctx)
	if err != nil {
		return nil, err
	}
	household, err := client.MyHousehold(ctx)
	if err != nil {
		if apiclient.IsNotAMember(err) {
			return nil, fmt.Errorf("create or join a household first: %w", err)
		}
		return nil, err
	}
	session := fridge.NewSession(client, append(opts, fridge.WithActor(email, household.ID))...)
	if err := session.Reconcile(ctx); err != nil {
		return nil, err
	}
	return session, nil
}
