package handler

import (
	"github.com/hitoshi/kickoff/internal/rpc"
)

// Services はプロシージャ本体が呼び出すサービス群。
type Services struct {
	News     NewsService
	Matches  MatchService
	Schedule ScheduleService
	Photos   PhotoService
	Bbs      BbsService
	Contact  ContactService
	Admin    AdminService
}

// Procedures は公開する全プロシージャを返す。
func Procedures(s *Services) []rpc.Procedure {
	var procs []rpc.Procedure
	procs = append(procs, authProcedures()...)
	procs = append(procs, newsProcedures(s.News)...)
	procs = append(procs, matchProcedures(s.Matches)...)
	procs = append(procs, scheduleProcedures(s.Schedule)...)
	procs = append(procs, photoProcedures(s.Photos)...)
	procs = append(procs, bbsProcedures(s.Bbs)...)
	procs = append(procs, contactProcedures(s.Contact)...)
	procs = append(procs, adminProcedures(s.Admin)...)
	return procs
}

// idInput はIDのみを受け取るプロシージャの入力。
type idInput struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}
