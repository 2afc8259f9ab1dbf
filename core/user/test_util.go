package user

import (
	"context"

	"github.com/mlezi/darasa/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a user Service whose side effects (emails) run
// synchronously so tests can assert on them.
func NewServiceMock(conf *core.Config, repo Repository, mailSvc core.EmailService) Service {
	return &serviceMock{
		service: service{
			conf:    conf,
			repo:    repo,
			mailSvc: mailSvc,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}
