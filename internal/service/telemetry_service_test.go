package service

import (
	"context"
	"errors"
	"testing"

	"smartbin-backend/internal/events"
	"smartbin-backend/internal/models"
)

func TestIngestSetsStatusPerReference(t *testing.T) {
	env := newTestEnv(t)
	env.createBin(t, "B1", models.BinTypeFillLevel)
	env.createBin(t, "B2", models.BinTypeFillLevel)
	env.createBin(t, "B3", models.BinTypeFillLevel)
	svc := env.telemetryService()

	res, err := svc.Ingest(context.Background(), []ReadingInput{
		{Reference: "B1", FillLevel: fp(10), CO2Level: fp(400)},
		{Reference: "B2", FillLevel: fp(65)},
		{Reference: "B3", FillLevel: fp(95), Temperature: fp(21.5)},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Readings != 3 || len(res.Statuses) != 3 {
		t.Fatalf("expected 3 readings and 3 statuses got %+v", res)
	}
	if n := env.count(t, &models.BinReading{}); n != 3 {
		t.Fatalf("expected 3 rows got %d", n)
	}

	want := map[string]string{"B1": models.StatusEmpty, "B2": models.StatusAlmostFull, "B3": models.StatusFull}
	for ref, statut := range want {
		if got := env.statut(t, ref); got != statut {
			t.Fatalf("%s: expected %q got %q", ref, statut, got)
		}
	}

	subjects := env.publisher.subjects()
	if len(subjects) != 3 || subjects[0] != events.SubjectBinStatus {
		t.Fatalf("expected 3 status events got %v", subjects)
	}
}

func TestIngestDuplicateReferenceUsesLastReading(t *testing.T) {
	env := newTestEnv(t)
	env.createBin(t, "B1", models.BinTypeFillLevel)
	svc := env.telemetryService()

	res, err := svc.Ingest(context.Background(), []ReadingInput{
		{Reference: "B1", FillLevel: fp(90)},
		{Reference: "B1", FillLevel: fp(20)},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(res.Statuses) != 1 || res.Statuses[0].Statut != models.StatusEmpty {
		t.Fatalf("expected one empty status got %+v", res.Statuses)
	}
	if got := env.statut(t, "B1"); got != models.StatusEmpty {
		t.Fatalf("expected empty got %q", got)
	}
	if n := env.count(t, &models.BinReading{}); n != 2 {
		t.Fatalf("expected both readings stored got %d", n)
	}

	latest, err := svc.Latest(context.Background(), "B1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.FillLevel != 20 {
		t.Fatalf("expected latest fill 20 got %v", latest.FillLevel)
	}
}

func TestIngestUnknownReferenceWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	env.createBin(t, "B1", models.BinTypeFillLevel)
	svc := env.telemetryService()

	_, err := svc.Ingest(context.Background(), []ReadingInput{
		{Reference: "B1", FillLevel: fp(90)},
		{Reference: "GHOST", FillLevel: fp(10)},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	if n := env.count(t, &models.BinReading{}); n != 0 {
		t.Fatalf("expected no rows got %d", n)
	}
	if got := env.statut(t, "B1"); got != models.StatusEmpty {
		t.Fatalf("expected status unchanged got %q", got)
	}
	if len(env.publisher.subjects()) != 0 {
		t.Fatal("expected no events after a failed batch")
	}
}

func TestIngestValidation(t *testing.T) {
	env := newTestEnv(t)
	env.createBin(t, "B1", models.BinTypeFillLevel)
	svc := env.telemetryService()

	cases := map[string][]ReadingInput{
		"empty batch":       {},
		"missing reference": {{Reference: "  ", FillLevel: fp(1)}},
		"missing fill":      {{Reference: "B1"}},
	}
	for name, batch := range cases {
		if _, err := svc.Ingest(context.Background(), batch); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation got %v", name, err)
		}
	}
}

func TestIngestOrganicLeavesStatus(t *testing.T) {
	env := newTestEnv(t)
	env.createBin(t, "O1", models.BinTypeOrganic)
	svc := env.telemetryService()

	n, err := svc.IngestOrganic(context.Background(), []OrganicReadingInput{
		{Reference: "O1", ToxicWaste: fp(1), OrganicWaste: fp(7)},
		{Reference: "O1", NonToxicWaste: fp(3)},
	})
	if err != nil {
		t.Fatalf("ingest organic: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 got %d", n)
	}
	if got := env.statut(t, "O1"); got != models.StatusEmpty {
		t.Fatalf("expected status untouched got %q", got)
	}

	data, err := svc.WasteData(context.Background(), "O1", 0)
	if err != nil {
		t.Fatalf("waste data: %v", err)
	}
	if len(data) != 2 {
		t.Fatalf("expected 2 readings got %d", len(data))
	}
}

func TestHistoryLimit(t *testing.T) {
	env := newTestEnv(t)
	env.createBin(t, "B1", models.BinTypeFillLevel)
	svc := env.telemetryService()

	batch := make([]ReadingInput, 15)
	for i := range batch {
		batch[i] = ReadingInput{Reference: "B1", FillLevel: fp(float64(i))}
	}
	if _, err := svc.Ingest(context.Background(), batch); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	got, err := svc.History(context.Background(), "B1", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != defaultHistoryLimit {
		t.Fatalf("expected %d readings got %d", defaultHistoryLimit, len(got))
	}
	if _, err := svc.History(context.Background(), "B1", -1); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}
	if _, err := svc.History(context.Background(), "NOPE", 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestIngestRollsBackReadingsWhenStatusUpdateFails(t *testing.T) {
	env := newTestEnv(t)
	env.createBin(t, "B1", models.BinTypeFillLevel)
	trigger := `CREATE TRIGGER fail_statut BEFORE UPDATE OF statut ON smart_trash_bin
		BEGIN SELECT RAISE(ABORT, 'statut locked'); END`
	if err := env.db.Exec(trigger).Error; err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	_, err := env.telemetryService().Ingest(context.Background(), []ReadingInput{{Reference: "B1", FillLevel: fp(90)}})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence got %v", err)
	}
	if n := env.count(t, &models.BinReading{}); n != 0 {
		t.Fatalf("expected readings rolled back got %d", n)
	}
	if len(env.publisher.subjects()) != 0 {
		t.Fatal("expected no events after a rolled back batch")
	}
}

func TestIngestMarksStaleBinWorkingAgain(t *testing.T) {
	env := newTestEnv(t)
	fill := env.createBin(t, "B1", models.BinTypeFillLevel)
	organic := env.createBin(t, "O1", models.BinTypeOrganic)
	other := env.createBin(t, "B2", models.BinTypeFillLevel)
	ids := []uint{fill.ID, organic.ID, other.ID}
	if err := env.bins.SetFunctionality(context.Background(), ids, models.FunctionalityNotOK); err != nil {
		t.Fatalf("set functionality: %v", err)
	}
	svc := env.telemetryService()
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, []ReadingInput{{Reference: "B1", FillLevel: fp(30)}}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if _, err := svc.IngestOrganic(ctx, []OrganicReadingInput{{Reference: "O1", OrganicWaste: fp(2)}}); err != nil {
		t.Fatalf("ingest organic: %v", err)
	}

	want := map[string]string{"B1": models.FunctionalityOK, "O1": models.FunctionalityOK, "B2": models.FunctionalityNotOK}
	for ref, functionality := range want {
		bin, err := env.bins.GetBinByReference(ctx, ref)
		if err != nil {
			t.Fatalf("get %s: %v", ref, err)
		}
		if bin.Functionality != functionality {
			t.Fatalf("%s: expected %q got %q", ref, functionality, bin.Functionality)
		}
	}
}

func TestIngestReferenceFollowsColumnCollation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createBin(t, "B1", models.BinTypeFillLevel)

	// case-sensitive column: a differently cased reference is unknown
	if _, err := env.telemetryService().Ingest(ctx, []ReadingInput{{Reference: "b1", FillLevel: fp(90)}}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}

	if err := env.db.Migrator().DropTable(&models.Bin{}); err != nil {
		t.Fatalf("drop: %v", err)
	}
	nocase := `CREATE TABLE smart_trash_bin (
		id integer PRIMARY KEY AUTOINCREMENT,
		reference text COLLATE NOCASE NOT NULL UNIQUE,
		type integer NOT NULL,
		functionality text NOT NULL DEFAULT 'ok',
		statut text NOT NULL DEFAULT 'empty',
		location text,
		hospital_id integer,
		created_at datetime,
		updated_at datetime)`
	if err := env.db.Exec(nocase).Error; err != nil {
		t.Fatalf("create table: %v", err)
	}
	env.createBin(t, "B1", models.BinTypeFillLevel)

	res, err := env.telemetryService().Ingest(ctx, []ReadingInput{
		{Reference: "b1", FillLevel: fp(20)},
		{Reference: "B1", FillLevel: fp(90)},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(res.Statuses) != 1 || res.Statuses[0].Reference != "B1" || res.Statuses[0].Statut != models.StatusFull {
		t.Fatalf("expected one full status for B1 got %+v", res.Statuses)
	}
	if got := env.statut(t, "B1"); got != models.StatusFull {
		t.Fatalf("expected full got %q", got)
	}
	var stored int64
	if err := env.db.Model(&models.BinReading{}).Where("reference = ?", "B1").Count(&stored).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if stored != 2 {
		t.Fatalf("expected both readings stored under B1 got %d", stored)
	}
}
