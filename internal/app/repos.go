package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/remission-backend/internal/data/repos"
	"github.com/yungbote/remission-backend/internal/platform/logger"
)

type Repos struct {
	User          repos.UserRepo
	SymptomLog    repos.SymptomLogRepo
	Prediction    repos.PredictionRepo
	TrendAnalysis repos.TrendAnalysisRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		SymptomLog:    repos.NewSymptomLogRepo(db, log),
		Prediction:    repos.NewPredictionRepo(db, log),
		TrendAnalysis: repos.NewTrendAnalysisRepo(db, log),
	}
}
