package handler

import (
	"context"

	"github.com/hitoshi/kickoff/internal/contact"
	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/rpc"
)

type contactSubmitInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=320"`
	Phone   string `json:"phone" validate:"max=20"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

func contactProcedures(svc ContactService) []rpc.Procedure {
	return []rpc.Procedure{
		rpc.Mutation("contact.submit", rpc.TierPublic,
			func(ctx context.Context, _ *rpc.Call, in contactSubmitInput) (createdOutput, error) {
				id, err := svc.Submit(ctx, &contact.SubmitInput{
					Name:    in.Name,
					Email:   in.Email,
					Phone:   in.Phone,
					Subject: in.Subject,
					Message: in.Message,
				})
				return createdOutput{ID: id}, err
			}, rpc.RateLimited()),

		rpc.Query("contact.list", rpc.TierAdmin,
			func(ctx context.Context, _ *rpc.Call, _ rpc.Empty) ([]*model.Contact, error) {
				return svc.List(ctx)
			}),
	}
}

type verifyPasswordInput struct {
	Password string `json:"password" validate:"required"`
}

type changePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// 管理画面のパスワードはユーザーのロールとは独立しているため、どちらも公開プロシージャとする。
func adminProcedures(svc AdminService) []rpc.Procedure {
	return []rpc.Procedure{
		rpc.Mutation("admin.verifyPassword", rpc.TierPublic,
			func(ctx context.Context, _ *rpc.Call, in verifyPasswordInput) (rpc.Success, error) {
				if err := svc.Verify(ctx, in.Password); err != nil {
					return rpc.Success{}, err
				}
				return rpc.OK(), nil
			}, rpc.RateLimited()),

		rpc.Mutation("admin.changePassword", rpc.TierPublic,
			func(ctx context.Context, _ *rpc.Call, in changePasswordInput) (rpc.Success, error) {
				if err := svc.Change(ctx, in.CurrentPassword, in.NewPassword); err != nil {
					return rpc.Success{}, err
				}
				return rpc.OK(), nil
			}, rpc.RateLimited()),
	}
}
