package handler

import (
	"context"

	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/rpc"
)

// createdOutput は作成したレコードのIDを返すミューテーションの出力。
type createdOutput struct {
	ID int64 `json:"id"`
}

type newsListInput struct {
	Category string `json:"category" validate:"omitempty,oneof=notice match event other"`
	Grade    string `json:"grade"`
	Search   string `json:"search" validate:"max=100"`
}

type newsCreateInput struct {
	Title    string `json:"title" validate:"required,max=255"`
	Content  string `json:"content" validate:"required"`
	Category string `json:"category" validate:"omitempty,oneof=notice match event other"`
	Grade    string `json:"grade" validate:"max=10"`
	ImageURL string `json:"imageUrl" validate:"max=1000"`
}

type newsUpdateInput struct {
	ID       int64   `json:"id" validate:"required,gt=0"`
	Title    *string `json:"title" validate:"omitempty,min=1,max=255"`
	Content  *string `json:"content" validate:"omitempty,min=1"`
	Category *string `json:"category" validate:"omitempty,oneof=notice match event other"`
	Grade    *string `json:"grade" validate:"omitempty,max=10"`
	ImageURL *string `json:"imageUrl" validate:"omitempty,max=1000"`
}

func newsProcedures(svc NewsService) []rpc.Procedure {
	return []rpc.Procedure{
		rpc.Query("news.list", rpc.TierPublic,
			func(ctx context.Context, _ *rpc.Call, in newsListInput) ([]*model.News, error) {
				return svc.List(ctx, model.NewsFilter{
					Category: model.NewsCategory(in.Category),
					Grade:    in.Grade,
					Search:   in.Search,
				})
			}),

		rpc.Query("news.getById", rpc.TierPublic,
			func(ctx context.Context, _ *rpc.Call, in idInput) (*model.News, error) {
				return svc.Get(ctx, in.ID)
			}),

		rpc.Mutation("news.create", rpc.TierAdmin,
			func(ctx context.Context, _ *rpc.Call, in newsCreateInput) (createdOutput, error) {
				id, err := svc.Create(ctx, &model.NewsInput{
					Title:    in.Title,
					Content:  in.Content,
					Category: model.NewsCategory(in.Category),
					Grade:    in.Grade,
					ImageURL: in.ImageURL,
				})
				return createdOutput{ID: id}, err
			}),

		rpc.Mutation("news.update", rpc.TierAdmin,
			func(ctx context.Context, _ *rpc.Call, in newsUpdateInput) (rpc.Success, error) {
				patch := &model.NewsPatch{
					Title:    in.Title,
					Content:  in.Content,
					Grade:    in.Grade,
					ImageURL: in.ImageURL,
				}
				if in.Category != nil {
					c := model.NewsCategory(*in.Category)
					patch.Category = &c
				}
				if err := svc.Update(ctx, in.ID, patch); err != nil {
					return rpc.Success{}, err
				}
				return rpc.OK(), nil
			}),

		rpc.Mutation("news.delete", rpc.TierAdmin,
			func(ctx context.Context, _ *rpc.Call, in idInput) (rpc.Success, error) {
				if err := svc.Delete(ctx, in.ID); err != nil {
					return rpc.Success{}, err
				}
				return rpc.OK(), nil
			}),
	}
}

type matchListInput struct {
	Grade     string    `json:"grade"`
	MatchType string    `json:"matchType" validate:"omitempty,oneof=official practice cup friendly"`
	Search    string    `json:"search" validate:"max=100"`
	StartDate *rpc.Date `json:"startDate"`
	EndDate   *rpc.Date `json:"endDate"`
}

type matchCreateInput struct {
	MatchDate     rpc.Date `json:"matchDate" validate:"required"`
	Opponent      string   `json:"opponent" validate:"required,max=255"`
	OurScore      int      `json:"ourScore" validate:"gte=0"`
	OpponentScore int      `json:"opponentScore" validate:"gte=0"`
	Venue         string   `json:"venue" validate:"max=255"`
	MatchType     string   `json:"matchType" validate:"omitempty,oneof=official practice cup friendly"`
	Grade         string   `json:"grade" validate:"max=10"`
	Scorers       string   `json:"scorers"`
	Notes         string   `json:"notes"`
	ImageURL      string   `json:"imageUrl" validate:"max=1000"`
}

type matchUpdateInput struct {
	ID            int64     `json:"id" validate:"required,gt=0"`
	MatchDate     *rpc.Date `json:"matchDate"`
	Opponent      *string   `json:"opponent" validate:"omitempty,min=1,max=255"`
	OurScore      *int      `json:"ourScore" validate:"omitempty,gte=0"`
	OpponentScore *int      `json:"opponentScore" validate:"omitempty,gte=0"`
	Venue         *string   `json:"venue" validate:"omitempty,max=255"`
	MatchType     *string   `json:"matchType" validate:"omitempty,oneof=official practice cup friendly"`
	Grade         *string   `json:"grade" validate:"omitempty,max=10"`
	Scorers       *string   `json:"scorers"`
	Notes         *string   `json:"notes"`
	ImageURL      *string   `json:"imageUrl" validate:"omitempty,max=1000"`
}

type statisticsInput struct {
	Grade string `json:"grade"`
}

func matchProcedures(svc MatchService) []rpc.Procedure {
	return []rpc.Procedure{
		rpc.Query("matchResults.list", rpc.TierPublic,
			func(ctx context.Context, _ *rpc.Call, in matchListInput) ([]*model.MatchResult, error) {
				return svc.List(ctx, model.MatchResultFilter{
					Grade:     in.Grade,
					MatchType: model.MatchType(in.MatchType),
					Search:    in.Search,
					StartDate: in.StartDate.Ptr(),
					EndDate:   in.EndDate.Ptr(),
				})
			}),

		rpc.Mutation("matchResults.create", rpc.TierAdmin,
			func(ctx context.Context, _ *rpc.Call, in matchCreateInput) (createdOutput, error) {
				id, err := svc.Create(ctx, &model.MatchResultInput{
					MatchDate:     in.MatchDate.Time,
					Opponent:      in.Opponent,
					OurScore:      in.OurScore,
					OpponentScore: in.OpponentScore,
					Venue:         in.Venue,
					MatchType:     model.MatchType(in.MatchType),
					Grade:         in.Grade,
					Scorers:       in.Scorers,
					Notes:         in.Notes,
					ImageURL:      in.ImageURL,
				})
				return createdOutput{ID: id}, err
			}),

		rpc.Mutation("matchResults.update", rpc.TierAdmin,
			func(ctx context.Context, _ *rpc.Call, in matchUpdateInput) (rpc.Success, error) {
				patch := &model.MatchResultPatch{
					MatchDate:     in.MatchDate.Ptr(),
					Opponent:      in.Opponent,
					OurScore:      in.OurScore,
					OpponentScore: in.OpponentScore,
					Venue:         in.Venue,
					Grade:         in.Grade,
					Scorers:       in.Scorers,
					Notes:         in.Notes,
					ImageURL:      in.ImageURL,
				}
				if in.MatchType != nil {
					mt := model.MatchType(*in.MatchType)
					patch.MatchType = &mt
				}
				if err := svc.Update(ctx, in.ID, patch); err != nil {
					return rpc.Success{}, err
				}
				return rpc.OK(), nil
			}),

		rpc.Mutation("matchResults.delete", rpc.TierAdmin,
			func(ctx context.Context, _ *rpc.Call, in idInput) (rpc.Success, error) {
				if err := svc.Delete(ctx, in.ID); err != nil {
					return rpc.Success{}, err
				}
				return rpc.OK(), nil
			}),

		rpc.Query("statistics.matchResults", rpc.TierPublic,
			func(ctx context.Context, _ *rpc.Call, in statisticsInput) (*model.MatchStatistics, error) {
				return svc.Statistics(ctx, in.Grade)
			}),
	}
}
