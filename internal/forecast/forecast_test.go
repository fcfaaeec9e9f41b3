package forecast

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/yungbote/remission-backend/internal/platform/gcp"
	"github.com/yungbote/remission-backend/internal/risk"
)

func record(pain, stress int, sleep float64, exercise, meds bool) risk.Record {
	return risk.Record{
		SubjectID:      "1234567890",
		PainLevel:      pain,
		StressLevel:    stress,
		SleepHours:     sleep,
		ExerciseDone:   exercise,
		TookMedication: meds,
	}
}

func TestSuggestions(t *testing.T) {
	cases := []struct {
		name string
		in   risk.Record
		want []string
	}{
		{name: "none", in: record(7, 6, 8, true, true), want: []string{}},
		{name: "all", in: record(8, 7, 8, false, false), want: []string{SuggestHighPain, SuggestHighStress, SuggestMissedMeds, SuggestNoExercise}},
		{name: "meds_only", in: record(2, 2, 8, true, false), want: []string{SuggestMissedMeds}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Suggestions(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Suggestions()=%q, want %q", got, tc.want)
			}
		})
	}
}

func TestRulePredictor(t *testing.T) {
	var p Predictor = RulePredictor{Window: 3}
	got, err := p.Predict(record(8, 2, 8, true, true))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !got.Flare || got.Probability != 1 || got.Source != SourceRules {
		t.Fatalf("Predict()=%+v", got)
	}
	got, _ = p.Predict(record(1, 2, 8, true, true))
	if got.Flare || got.Probability != 0 {
		t.Fatalf("Predict()=%+v", got)
	}
	if _, err := p.Predict(record(0, 2, 8, true, true)); !errors.Is(err, risk.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if sum := p.Insights(nil); sum.Window != 3 || sum.Narrative != risk.MsgInsufficientData {
		t.Fatalf("Insights(nil)=%+v", sum)
	}
}

func TestPipeline(t *testing.T) {
	nan := math.NaN()
	samples := []Sample{
		{Features: [NumNumeric]float64{2, 4, 6, 1, 1}, ExerciseType: "yoga"},
		{Features: [NumNumeric]float64{4, 4, nan, 0, 1}, ExerciseType: "cardio"},
		{Features: [NumNumeric]float64{nan, 4, 8, 1, 0}, ExerciseType: "yoga"},
		{Features: [NumNumeric]float64{6, 4, 7, 1, 1}},
	}
	p := FitPipeline(samples)
	if p.Means[FeaturePain] != 4 || p.Means[FeatureSleep] != 7 {
		t.Fatalf("means=%v", p.Means)
	}
	if p.Scales[FeatureStress] != 1 {
		t.Fatalf("constant column should scale by 1, got %v", p.Scales[FeatureStress])
	}
	if p.Mode != "yoga" || !reflect.DeepEqual(p.Categories, []string{"cardio", "yoga"}) {
		t.Fatalf("mode=%q categories=%v", p.Mode, p.Categories)
	}
	if p.Width() != NumNumeric+2 {
		t.Fatalf("width=%d", p.Width())
	}

	x := p.Transform(Sample{Features: [NumNumeric]float64{nan, 4, 7, 1, 1}})
	if x[FeaturePain] != 0 || x[FeatureSleep] != 0 {
		t.Fatalf("missing values should impute to the mean: %v", x)
	}
	if x[NumNumeric] != 0 || x[NumNumeric+1] != 1 {
		t.Fatalf("missing category should impute to mode: %v", x)
	}
	x = p.Transform(Sample{ExerciseType: "running"})
	if x[NumNumeric] != 0 || x[NumNumeric+1] != 0 {
		t.Fatalf("unknown category should encode as zeros: %v", x)
	}
}

func TestPipelineModeTieBreak(t *testing.T) {
	p := FitPipeline([]Sample{{ExerciseType: "yoga"}, {ExerciseType: "cardio"}})
	if p.Mode != "cardio" {
		t.Fatalf("mode=%q, want lexicographically smallest on tie", p.Mode)
	}
}

func TestGenerate(t *testing.T) {
	a := Generate(500, 7)
	b := Generate(500, 7)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("Generate is not deterministic for a fixed seed")
	}
	flares := 0
	for _, s := range a {
		sleep := s.Features[FeatureSleep]
		if sleep < 4 || sleep > 9 {
			t.Fatalf("sleep out of range: %v", sleep)
		}
		if s.Features[FeatureExercise] == 0 && s.ExerciseType != "" {
			t.Fatalf("exercise type without exercise: %+v", s)
		}
		r := record(int(s.Features[FeaturePain]), int(s.Features[FeatureStress]), sleep, s.Features[FeatureExercise] == 1, s.Features[FeatureMedication] == 1)
		c, err := risk.Classify(r)
		if err != nil {
			t.Fatalf("generated invalid record: %v", err)
		}
		if c.Flare() != s.Label {
			t.Fatalf("label mismatch for %+v", s)
		}
		if s.Label {
			flares++
		}
	}
	if flares == 0 || flares == len(a) {
		t.Fatalf("degenerate labels: %d flares of %d", flares, len(a))
	}
}

func TestCSVRoundTrip(t *testing.T) {
	in := Generate(20, 3)
	in[0].Features[FeatureSleep] = math.NaN()
	in[1].ExerciseType = ""

	var buf bytes.Buffer
	if err := WriteCSV(&buf, in); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.HasPrefix(buf.String(), strings.Join(csvHeader, ",")+"\n") {
		t.Fatalf("unexpected header: %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}
	out, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("rows=%d, want %d", len(out), len(in))
	}
	if !math.IsNaN(out[0].Features[FeatureSleep]) {
		t.Fatalf("blank cell should read back as missing")
	}
	for i := 1; i < len(in); i++ {
		if in[i].Features != out[i].Features || in[i].Label != out[i].Label || in[i].ExerciseType != out[i].ExerciseType || !in[i].LoggedAt.Equal(out[i].LoggedAt) {
			t.Fatalf("row %d: got %+v want %+v", i, out[i], in[i])
		}
	}
}

func TestReadCSVOriginalLayout(t *testing.T) {
	src := "pain_level,stress_level,sleep_hours,exercise_done,exercise_type,took_medication,flare_up\n" +
		"8,3,7.5,True,None,1,1\n" +
		"2,,6,0,,False,0\n"
	out, err := ReadCSV(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(out) != 2 || !out[0].Label || out[1].Label {
		t.Fatalf("unexpected rows: %+v", out)
	}
	if out[0].ExerciseType != "" || out[0].Features[FeatureExercise] != 1 {
		t.Fatalf("row 0: %+v", out[0])
	}
	if !math.IsNaN(out[1].Features[FeatureStress]) {
		t.Fatalf("row 1 stress should be missing")
	}

	if _, err := ReadCSV(strings.NewReader("pain_level\n3\n")); err == nil {
		t.Fatalf("expected error without label column")
	}
}

func smallOptions() TrainOptions {
	opts := DefaultTrainOptions()
	opts.Trees = 15
	return opts
}

func TestTrain(t *testing.T) {
	samples := Generate(1500, 42)
	m, rep, err := Train(context.Background(), samples, smallOptions())
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if rep.TestRows != 300 || rep.TrainRows != 1200 {
		t.Fatalf("split: %+v", rep)
	}
	if rep.Accuracy < 0.85 {
		t.Fatalf("accuracy too low: %+v", rep)
	}
	if m.Report != rep || len(m.Forest.Trees) != 15 {
		t.Fatalf("model not populated: %d trees, %+v", len(m.Forest.Trees), m.Report)
	}

	p, err := m.Predict(record(9, 8, 4, false, false))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !p.Flare || p.Source != SourceModel || p.Probability <= 0.5 {
		t.Fatalf("obvious flare not predicted: %+v", p)
	}
	p, _ = m.Predict(record(1, 1, 8.5, true, true))
	if p.Flare {
		t.Fatalf("obvious remission predicted as flare: %+v", p)
	}
	if _, err := m.Predict(record(3, 3, 30, true, true)); !errors.Is(err, risk.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	anon := record(9, 8, 4, false, false)
	anon.SubjectID = ""
	if p, err := m.Predict(anon); err != nil || p.Probability != m.probability(SampleFromRecord(record(9, 8, 4, false, false))) {
		t.Fatalf("record without subject: %+v %v", p, err)
	}
}

func TestTrainDeterministicAcrossWorkers(t *testing.T) {
	samples := Generate(300, 11)
	a := smallOptions()
	a.Workers = 1
	b := smallOptions()
	b.Workers = 4
	m1, _, err := Train(context.Background(), samples, a)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	m2, _, err := Train(context.Background(), samples, b)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if !reflect.DeepEqual(m1.Forest, m2.Forest) {
		t.Fatalf("forest depends on worker count")
	}
}

func TestTrainErrors(t *testing.T) {
	if _, _, err := Train(context.Background(), Generate(1, 1), smallOptions()); !errors.Is(err, ErrTooFewSamples) {
		t.Fatalf("expected ErrTooFewSamples, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Train(ctx, Generate(100, 1), smallOptions()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	bad := smallOptions()
	bad.TestFraction = 1
	if _, _, err := Train(context.Background(), Generate(100, 1), bad); err == nil {
		t.Fatalf("expected error for test fraction 1")
	}
}

func trainSmall(t *testing.T) *Model {
	t.Helper()
	m, _, err := Train(context.Background(), Generate(200, 5), smallOptions())
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	return m
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store := FileStore{Dir: t.TempDir()}
	m := trainSmall(t)

	if _, err := store.Load(ctx, "flare"); !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
	if err := store.Save(ctx, "flare", m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx, "flare")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r := record(6, 7, 5.5, false, true)
	want, _ := m.Predict(r)
	have, _ := got.Predict(r)
	if want.Probability != have.Probability {
		t.Fatalf("loaded model disagrees: %v vs %v", have.Probability, want.Probability)
	}
	if err := store.Save(ctx, "../escape", m); err == nil {
		t.Fatalf("expected invalid name error")
	}
}

type memBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *memBucket) Upload(_ context.Context, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.objects == nil {
		b.objects = map[string][]byte{}
	}
	b.objects[key] = data
	return nil
}

func (b *memBucket) Download(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, gcp.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memBucket) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memBucket) List(context.Context, string) ([]string, error) { return nil, nil }
func (b *memBucket) Close() error                                   { return nil }

func TestBucketStore(t *testing.T) {
	ctx := context.Background()
	bucket := &memBucket{}
	store := BucketStore{Bucket: bucket}

	if _, err := store.Load(ctx, "flare"); !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
	if err := store.Save(ctx, "flare", trainSmall(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := bucket.objects["flare.json"]; !ok {
		t.Fatalf("object not written under flare.json: %v", bucket.objects)
	}
	if _, err := store.Load(ctx, "flare"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	bucket.objects["broken.json"] = []byte(`{"version":99}`)
	if _, err := store.Load(ctx, "broken"); err == nil {
		t.Fatalf("expected version error")
	}
}
