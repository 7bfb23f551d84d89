package handler

import (
	"context"

	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/rpc"
)

type bbsCreateInput struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required,max=10000"`
}

type commentListInput struct {
	PostID int64 `json:"postId" validate:"required,gt=0"`
}

type commentCreateInput struct {
	PostID  int64  `json:"postId" validate:"required,gt=0"`
	Content string `json:"content" validate:"required,max=2000"`
}

func bbsProcedures(svc BbsService) []rpc.Procedure {
	return []rpc.Procedure{
		rpc.Query("bbs.list", rpc.TierPublic,
			func(ctx context.Context, _ *rpc.Call, _ rpc.Empty) ([]*model.BbsPost, error) {
				return svc.ListPosts(ctx)
			}),

		rpc.Mutation("bbs.create", rpc.TierProtected,
			func(ctx context.Context, call *rpc.Call, in bbsCreateInput) (*model.BbsPost, error) {
				return svc.CreatePost(ctx, call.User, in.Title, in.Content)
			}),

		rpc.Mutation("bbs.delete", rpc.TierProtected,
			func(ctx context.Context, call *rpc.Call, in idInput) (rpc.Success, error) {
				if err := svc.DeletePost(ctx, call.User, in.ID); err != nil {
					return rpc.Success{}, err
				}
				return rpc.OK(), nil
			}),

		rpc.Query("bbsComments.listByPost", rpc.TierPublic,
			func(ctx context.Context, _ *rpc.Call, in commentListInput) ([]*model.BbsComment, error) {
				return svc.ListComments(ctx, in.PostID)
			}),

		rpc.Mutation("bbsComments.create", rpc.TierProtected,
			func(ctx context.Context, call *rpc.Call, in commentCreateInput) (*model.BbsComment, error) {
				return svc.CreateComment(ctx, call.User, in.PostID, in.Content)
			}),

		rpc.Mutation("bbsComments.delete", rpc.TierProtected,
			func(ctx context.Context, call *rpc.Call, in idInput) (rpc.Success, error) {
				if err := svc.DeleteComment(ctx, call.User, in.ID); err != nil {
					return rpc.Success{}, err
				}
				return rpc.OK(), nil
			}),
	}
}
