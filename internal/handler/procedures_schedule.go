package handler

import (
	"context"

	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/rpc"
	"github.com/hitoshi/kickoff/internal/schedule"
)

type scheduleListInput struct {
	Grade     string    `json:"grade"`
	Search    string    `json:"search" validate:"max=100"`
	EventType string    `json:"eventType" validate:"omitempty,oneof=practice match tournament event"`
	StartDate *rpc.Date `json:"startDate"`
	EndDate   *rpc.Date `json:"endDate"`
}

type scheduleCreateInput struct {
	EventDate rpc.Date `json:"eventDate" validate:"required"`
	EventTime string   `json:"eventTime" validate:"max=50"`
	Opponent  string   `json:"opponent" validate:"max=255"`
	Venue     string   `json:"venue" validate:"max=255"`
	EventType string   `json:"eventType" validate:"omitempty,oneof=practice match tournament event"`
	Grades    []string `json:"grades" validate:"required,min=1,max=5,unique,dive,oneof=U7 U8 U9 U10 U11 U12"`
	Notes     string   `json:"notes"`
}

type scheduleUpdateInput struct {
	ID        int64     `json:"id" validate:"required,gt=0"`
	EventDate *rpc.Date `json:"eventDate"`
	EventTime *string   `json:"eventTime" validate:"omitempty,max=50"`
	Opponent  *string   `json:"opponent" validate:"omitempty,max=255"`
	Venue     *string   `json:"venue" validate:"omitempty,max=255"`
	EventType *string   `json:"eventType" validate:"omitempty,oneof=practice match tournament event"`
	Grades    []string  `json:"grades" validate:"omitempty,min=1,max=5,unique,dive,oneof=U7 U8 U9 U10 U11 U12"`
	Notes     *string   `json:"notes"`
}

func scheduleProcedures(svc ScheduleService) []rpc.Procedure {
	return []rpc.Procedure{
		rpc.Query("schedules.list", rpc.TierPublic,
			func(ctx context.Context, _ *rpc.Call, in scheduleListInput) ([]*model.Schedule, error) {
				return svc.List(ctx, model.ScheduleFilter{
					Grade:     in.Grade,
					Search:    in.Search,
					EventType: model.EventType(in.EventType),
					StartDate: in.StartDate.Ptr(),
					EndDate:   in.EndDate.Ptr(),
				})
			}),

		rpc.Mutation("schedules.create", rpc.TierAdmin,
			func(ctx context.Context, _ *rpc.Call, in scheduleCreateInput) (*model.Schedule, error) {
				grades, err := schedule.ParseGrades(in.Grades)
				if err != nil {
					return nil, err
				}
				return svc.Create(ctx, &model.ScheduleInput{
					EventDate: in.EventDate.Time,
					EventTime: in.EventTime,
					Opponent:  in.Opponent,
					Venue:     in.Venue,
					EventType: model.EventType(in.EventType),
					Grades:    grades,
					Notes:     in.Notes,
				})
			}),

		rpc.Mutation("schedules.update", rpc.TierAdmin,
			func(ctx context.Context, _ *rpc.Call, in scheduleUpdateInput) (rpc.Success, error) {
				patch := &model.SchedulePatch{
					EventDate: in.EventDate.Ptr(),
					EventTime: in.EventTime,
					Opponent:  in.Opponent,
					Venue:     in.Venue,
					Notes:     in.Notes,
				}
				if in.EventType != nil {
					et := model.EventType(*in.EventType)
					patch.EventType = &et
				}
				if in.Grades != nil {
					grades, err := schedule.ParseGrades(in.Grades)
					if err != nil {
						return rpc.Success{}, err
					}
					patch.Grades = grades
				}
				if err := svc.Update(ctx, in.ID, patch); err != nil {
					return rpc.Success{}, err
				}
				return rpc.OK(), nil
			}),

		rpc.Mutation("schedules.delete", rpc.TierAdmin,
			func(ctx context.Context, _ *rpc.Call, in idInput) (rpc.Success, error) {
				if err := svc.Delete(ctx, in.ID); err != nil {
					return rpc.Success{}, err
				}
				return rpc.OK(), nil
			}),
	}
}
