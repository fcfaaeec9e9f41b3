package domain

import (
	"github.com/yungbote/remission-backend/internal/domain/symptoms"
	"github.com/yungbote/remission-backend/internal/domain/user"
)

type User = user.User

type SymptomLog = symptoms.SymptomLog
type Prediction = symptoms.Prediction
type TrendAnalysis = symptoms.TrendAnalysis

const (
	PredictionSourceRules = symptoms.PredictionSourceRules
	PredictionSourceModel = symptoms.PredictionSourceModel
)

var NewSymptomLog = symptoms.NewSymptomLog
var Records = symptoms.Records

// Models lists every persisted entity in migration order.
func Models() []any {
	return []any{
		&User{},
		&SymptomLog{},
		&Prediction{},
		&TrendAnalysis{},
	}
}
