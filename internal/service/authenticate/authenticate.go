package authenticate

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"marketplace/internal/code"
	"marketplace/internal/store"
)

// AuthenticateSrv checks provider callbacks against the secret of the offering they report on.
type AuthenticateSrv interface {
	AuthenticateOrder(ctx context.Context, orderID, secret string) error
	AuthenticateResource(ctx context.Context, resourceID, secret string) error
}

func NewAuthenticateSrv(f store.Factory) AuthenticateSrv {
	return &authSrv{store: f}
}

type authSrv struct {
	store store.Factory
}

func (a *authSrv) AuthenticateOrder(ctx context.Context, orderID, secret string) error {
	o, err := a.store.Orders().Get(ctx, orderID)
	if err != nil {
		return err
	}
	return a.check(ctx, o.OfferingID, secret)
}

func (a *authSrv) AuthenticateResource(ctx context.Context, resourceID, secret string) error {
	r, err := a.store.Resources().Get(ctx, resourceID)
	if err != nil {
		return err
	}
	return a.check(ctx, r.OfferingID, secret)
}

func (a *authSrv) check(ctx context.Context, offeringID, secret string) error {
	offering, err := a.store.Offerings().Get(ctx, offeringID)
	if err != nil {
		return err
	}
	// an offering without a secret accepts no callbacks
	if offering.SecretCode == "" || secret == "" {
		return errors.WithStack(code.ErrInvalidSecret)
	}
	if err = bcrypt.CompareHashAndPassword([]byte(offering.SecretCode), []byte(secret)); err != nil {
		return errors.WithStack(code.ErrInvalidSecret.WithResult(err.Error()))
	}
	return nil
}

// HashSecret returns the form of secret kept in Offering.SecretCode.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(hash), nil
}
