package symptoms

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yungbote/remission-backend/internal/data/db"
	"github.com/yungbote/remission-backend/internal/data/repos/testutil"
	types "github.com/yungbote/remission-backend/internal/domain"
	"github.com/yungbote/remission-backend/internal/risk"
)

const subject = "1234567890"

func TestSymptomLogRepo(t *testing.T) {
	gdb := testutil.DB(t)
	repo := NewSymptomLogRepo(gdb, testutil.Logger(t))
	ctx := context.Background()
	testutil.SeedUser(t, ctx, gdb, subject)

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	yoga := risk.ExerciseYoga
	first := testutil.Record(subject, 3, 4, 7.5, true, true, base)
	first.ExerciseType = &yoga
	first.DietTriggers = []string{"dairy", "gluten"}
	first.DietNotes = "cheese"

	if latest, err := repo.Latest(ctx, nil, subject); err != nil || latest != nil {
		t.Fatalf("Latest on empty: %+v, %v", latest, err)
	}

	created, err := repo.Create(ctx, nil, types.NewSymptomLog(first))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 1; i <= 3; i++ {
		r := testutil.Record(subject, 3+i, 4, 7, false, true, base.Add(time.Duration(i)*24*time.Hour))
		if _, err := repo.Create(ctx, nil, types.NewSymptomLog(r)); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	asc, err := repo.ListBySubject(ctx, nil, subject, OrderAsc, 0)
	if err != nil {
		t.Fatalf("ListBySubject asc: %v", err)
	}
	if len(asc) != 4 || asc[0].ID != created.ID || asc[3].PainLevel != 6 {
		t.Fatalf("ListBySubject asc unexpected: %+v", asc)
	}
	rec := asc[0].Record()
	if rec.ExerciseType == nil || *rec.ExerciseType != risk.ExerciseYoga || len(rec.DietTriggers) != 2 || rec.DietNotes != "cheese" {
		t.Fatalf("round-tripped record lost fields: %+v", rec)
	}

	desc, err := repo.ListBySubject(ctx, nil, subject, OrderDesc, 2)
	if err != nil {
		t.Fatalf("ListBySubject desc: %v", err)
	}
	if len(desc) != 2 || desc[0].PainLevel != 6 || desc[1].PainLevel != 5 {
		t.Fatalf("ListBySubject desc unexpected: %+v", desc)
	}

	latest, err := repo.Latest(ctx, nil, subject)
	if err != nil || latest == nil || latest.PainLevel != 6 {
		t.Fatalf("Latest=%+v, %v", latest, err)
	}
}

func TestSymptomLogCreateClampsLoggedAt(t *testing.T) {
	gdb := testutil.DB(t)
	repo := NewSymptomLogRepo(gdb, testutil.Logger(t))
	ctx := context.Background()
	testutil.SeedUser(t, ctx, gdb, subject)

	now := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	if _, err := repo.Create(ctx, nil, types.NewSymptomLog(testutil.Record(subject, 2, 2, 8, true, true, now))); err != nil {
		t.Fatalf("Create: %v", err)
	}
	late, err := repo.Create(ctx, nil, types.NewSymptomLog(testutil.Record(subject, 9, 2, 8, true, true, now.Add(-time.Hour))))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !late.LoggedAt.Equal(now) {
		t.Fatalf("logged_at=%v, want clamped to %v", late.LoggedAt, now)
	}
	latest, _ := repo.Latest(ctx, nil, subject)
	if latest.ID != late.ID {
		t.Fatalf("latest should be the most recently inserted row on a tie")
	}
}

func TestSymptomLogRequiresKnownSubject(t *testing.T) {
	gdb := testutil.DB(t)
	repo := NewSymptomLogRepo(gdb, testutil.Logger(t))
	_, err := repo.Create(context.Background(), nil, types.NewSymptomLog(testutil.Record("1999999999", 2, 2, 8, true, true, time.Now())))
	if !db.IsForeignKeyViolation(err) {
		t.Fatalf("expected foreign key violation, got %v", err)
	}
}

func TestSymptomLogCreateRollsBackWithTx(t *testing.T) {
	gdb := testutil.DB(t)
	repo := NewSymptomLogRepo(gdb, testutil.Logger(t))
	ctx := context.Background()
	testutil.SeedUser(t, ctx, gdb, subject)

	tx := gdb.Begin()
	if _, err := repo.Create(ctx, tx, types.NewSymptomLog(testutil.Record(subject, 2, 2, 8, true, true, time.Now()))); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := tx.Rollback().Error; err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if rows, _ := repo.ListBySubject(ctx, nil, subject, OrderAsc, 0); len(rows) != 0 {
		t.Fatalf("rolled back insert is visible: %d", len(rows))
	}
}

func TestPredictionAndTrendRepos(t *testing.T) {
	gdb := testutil.DB(t)
	ctx := context.Background()
	log := testutil.Logger(t)
	testutil.SeedUser(t, ctx, gdb, subject)
	entry := testutil.SeedSymptomLog(t, ctx, gdb, testutil.Record(subject, 8, 2, 8, true, true, time.Now().UTC()))

	preds := NewPredictionRepo(gdb, log)
	insights, _ := json.Marshal([]string{risk.MsgFlareLead})
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, src := range []string{types.PredictionSourceRules, types.PredictionSourceModel} {
		if _, err := preds.Create(ctx, nil, &types.Prediction{
			SubjectID:    subject,
			SymptomLogID: &entry.ID,
			Source:       src,
			Result:       string(risk.TagFlare),
			Tier:         1,
			Insights:     insights,
			PredictedAt:  base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Create prediction: %v", err)
		}
	}
	list, err := preds.ListBySubject(ctx, nil, subject, 1)
	if err != nil || len(list) != 1 || list[0].Source != types.PredictionSourceModel {
		t.Fatalf("ListBySubject=%+v, %v", list, err)
	}

	trends := NewTrendAnalysisRepo(gdb, log)
	if latest, err := trends.Latest(ctx, nil, subject); err != nil || latest != nil {
		t.Fatalf("Latest on empty: %+v, %v", latest, err)
	}
	for i, summary := range []string{risk.MsgStable, risk.MsgLowSleep} {
		if _, err := trends.Create(ctx, nil, &types.TrendAnalysis{
			SubjectID:   subject,
			Summary:     summary,
			WindowSize:  risk.DefaultWindow,
			RecordCount: 5,
			GeneratedAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("Create trend: %v", err)
		}
	}
	latest, err := trends.Latest(ctx, nil, subject)
	if err != nil || latest == nil || latest.Summary != risk.MsgLowSleep {
		t.Fatalf("Latest=%+v, %v", latest, err)
	}
}

func TestLockSubjectRowLock(t *testing.T) {
	pg, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost dbname=remission"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("open dry-run postgres: %v", err)
	}
	stmt := lockSubject(context.Background(), pg, subject).Statement
	if sql := stmt.SQL.String(); !strings.Contains(sql, "FOR UPDATE") || !strings.Contains(sql, `"users"`) {
		t.Fatalf("lock statement: %s", sql)
	}

	// On sqlite the same call runs inside a transaction without error.
	gdb := testutil.DB(t)
	testutil.SeedUser(t, context.Background(), gdb, subject)
	err = gdb.Transaction(func(tx *gorm.DB) error {
		return lockSubject(context.Background(), tx, subject).Error
	})
	if err != nil {
		t.Fatalf("lockSubject on sqlite: %v", err)
	}
}
