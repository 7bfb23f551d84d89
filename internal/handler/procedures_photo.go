package handler

import (
	"context"

	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/photo"
	"github.com/hitoshi/kickoff/internal/rpc"
)

type photoListInput struct {
	Category string `json:"category" validate:"max=100"`
}

type photoUploadInput struct {
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description"`
	Category    string    `json:"category" validate:"max=100"`
	TakenAt     *rpc.Date `json:"takenAt"`
	FileName    string    `json:"fileName" validate:"required,max=255"`
	ContentType string    `json:"contentType" validate:"max=100"`
	Data        string    `json:"data" validate:"required"`
}

func photoProcedures(svc PhotoService) []rpc.Procedure {
	return []rpc.Procedure{
		rpc.Query("photos.list", rpc.TierPublic,
			func(ctx context.Context, _ *rpc.Call, in photoListInput) ([]*model.Photo, error) {
				return svc.List(ctx, model.PhotoFilter{Category: in.Category})
			}),

		rpc.Query("photos.getById", rpc.TierPublic,
			func(ctx context.Context, _ *rpc.Call, in idInput) (*model.Photo, error) {
				return svc.Get(ctx, in.ID)
			}),

		rpc.Mutation("photos.upload", rpc.TierAdmin,
			func(ctx context.Context, _ *rpc.Call, in photoUploadInput) (*model.Photo, error) {
				return svc.Upload(ctx, &photo.UploadInput{
					Title:       in.Title,
					Description: in.Description,
					Category:    in.Category,
					TakenAt:     in.TakenAt.Ptr(),
					FileName:    in.FileName,
					ContentType: in.ContentType,
					Data:        in.Data,
				})
			}),

		// ストレージ上のオブジェクトは削除しない
		rpc.Mutation("photos.delete", rpc.TierAdmin,
			func(ctx context.Context, _ *rpc.Call, in idInput) (rpc.Success, error) {
				if err := svc.Delete(ctx, in.ID); err != nil {
					return rpc.Success{}, err
				}
				return rpc.OK(), nil
			}),
	}
}
