package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/kickoff/internal/auth"
	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/rpc"
)

func authProcedures() []rpc.Procedure {
	return []rpc.Procedure{
		// 未ログインの場合はnullを返す
		rpc.Query("auth.me", rpc.TierPublic,
			func(ctx context.Context, call *rpc.Call, _ rpc.Empty) (*model.User, error) {
				return call.User, nil
			}),

		rpc.Mutation("auth.logout", rpc.TierPublic,
			func(ctx context.Context, call *rpc.Call, _ rpc.Empty) (rpc.Success, error) {
				http.SetCookie(call.ResponseWriter, auth.ClearSessionCookie(call.Request))
				return rpc.OK(), nil
			}),
	}
}
