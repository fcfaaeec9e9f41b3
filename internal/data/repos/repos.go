package repos

import (
	"github.com/yungbote/remission-backend/internal/data/repos/symptoms"
	"github.com/yungbote/remission-backend/internal/data/repos/user"
	"github.com/yungbote/remission-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo

type SymptomLogRepo = symptoms.SymptomLogRepo
type PredictionRepo = symptoms.PredictionRepo
type TrendAnalysisRepo = symptoms.TrendAnalysisRepo

type Order = symptoms.Order

const (
	OrderAsc  = symptoms.OrderAsc
	OrderDesc = symptoms.OrderDesc
)

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }

func NewSymptomLogRepo(db *gorm.DB, log *logger.Logger) SymptomLogRepo {
	return symptoms.NewSymptomLogRepo(db, log)
}

func NewPredictionRepo(db *gorm.DB, log *logger.Logger) PredictionRepo {
	return symptoms.NewPredictionRepo(db, log)
}

func NewTrendAnalysisRepo(db *gorm.DB, log *logger.Logger) TrendAnalysisRepo {
	return symptoms.NewTrendAnalysisRepo(db, log)
}
