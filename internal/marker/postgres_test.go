package marker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danilwladich/2rnik/internal/apperr"
	"github.com/danilwladich/2rnik/internal/imagestore"

	"github.com/pashagolub/pgxmock/v3"
)

var errMarker = errors.New("marker error")

func markerRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "address", "lat", "lng", "added_by", "confirmed", "created_at"})
}

func imageRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "marker_id", "url"})
}

func TestPostgresInsertWithImages(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	createdAt := time.Now()
	mock.ExpectQuery(`INSERT INTO markers`).
		WithArgs(pgxmock.AnyArg(), "Cafe X", "Main St 1", 52.23, 21.01, "user-1", false).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	mock.ExpectExec(`INSERT INTO marker_images`).
		WithArgs("img-1", pgxmock.AnyArg(), "https://img/img-1", 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPostgresRepository(mock)
	m, err := repo.Insert(context.Background(), Marker{
		Name:    "Cafe X",
		Address: "Main St 1",
		Lat:     52.23,
		Lng:     21.01,
		AddedBy: "user-1",
		Images:  []imagestore.Image{{ID: "img-1", URL: "https://img/img-1"}},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if m.ID == "" || m.Confirmed {
		t.Fatalf("unexpected marker %+v", m)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, name, address, lat, lng, added_by, confirmed, created_at`).
		WithArgs("marker-1").
		WillReturnRows(markerRows().AddRow("marker-1", "Cafe X", "Main St 1", 52.23, 21.01, "user-1", true, time.Now()))

	mock.ExpectQuery(`SELECT id, marker_id, url`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(imageRows().AddRow("img-1", "marker-1", "https://img/img-1"))

	repo := NewPostgresRepository(mock)
	m, err := repo.GetByID(context.Background(), "marker-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(m.Images) != 1 || m.Images[0].URL != "https://img/img-1" {
		t.Fatalf("expected images loaded, got %+v", m.Images)
	}
}

func TestPostgresGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, name, address, lat, lng, added_by, confirmed, created_at`).
		WithArgs("missing").
		WillReturnRows(markerRows())

	repo := NewPostgresRepository(mock)
	if _, err := repo.GetByID(context.Background(), "missing"); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgresListVisible(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`WHERE confirmed = TRUE`).
		WithArgs(52.0, 53.0, 20.0, 22.0, 100, 0).
		WillReturnRows(markerRows().AddRow("marker-1", "Cafe X", "", 52.23, 21.01, "user-1", true, time.Now()))

	mock.ExpectQuery(`SELECT id, marker_id, url`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(imageRows())

	repo := NewPostgresRepository(mock)
	markers, err := repo.ListVisible(context.Background(), BoundingBox{LatMin: 52.0, LatMax: 53.0, LngMin: 20.0, LngMax: 22.0}, 1, 100)
	if err != nil {
		t.Fatalf("list visible: %v", err)
	}
	if len(markers) != 1 || !markers[0].Confirmed {
		t.Fatalf("unexpected markers %+v", markers)
	}
}

func TestPostgresListPending(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`WHERE confirmed = FALSE`).
		WithArgs(25, 0).
		WillReturnRows(markerRows().
			AddRow("marker-1", "Old", "", 52.0, 21.0, "user-1", false, time.Now().Add(-time.Hour)).
			AddRow("marker-2", "New", "", 52.1, 21.1, "user-2", false, time.Now()))

	mock.ExpectQuery(`SELECT id, marker_id, url`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(imageRows())

	repo := NewPostgresRepository(mock)
	markers, err := repo.ListPending(context.Background(), 1, 25)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(markers) != 2 || markers[0].Name != "Old" {
		t.Fatalf("unexpected markers %+v", markers)
	}
}

func TestPostgresConfirmAndDelete(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`UPDATE markers SET confirmed = TRUE`).
		WithArgs("marker-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	mock.ExpectExec(`DELETE FROM marker_images`).
		WithArgs("marker-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	mock.ExpectExec(`DELETE FROM markers`).
		WithArgs("marker-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	repo := NewPostgresRepository(mock)
	if err := repo.SetConfirmed(context.Background(), "marker-1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := repo.Delete(context.Background(), "marker-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestPostgresDeleteMissing(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM marker_images`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	mock.ExpectExec(`DELETE FROM markers`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewPostgresRepository(mock)
	if err := repo.Delete(context.Background(), "missing"); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgresFavoritesAndReports(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO favorites`).
		WithArgs(pgxmock.AnyArg(), "marker-1", "user-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	// Favoriting twice lands on the conflict clause.
	mock.ExpectExec(`INSERT INTO favorites`).
		WithArgs(pgxmock.AnyArg(), "marker-1", "user-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	mock.ExpectExec(`DELETE FROM favorites`).
		WithArgs("marker-1", "user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	mock.ExpectExec(`INSERT INTO marker_reports`).
		WithArgs(pgxmock.AnyArg(), "marker-1", "user-2", "spam").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPostgresRepository(mock)
	if err := repo.AddFavorite(context.Background(), "marker-1", "user-1"); err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if err := repo.AddFavorite(context.Background(), "marker-1", "user-1"); err != nil {
		t.Fatalf("duplicate favorite: %v", err)
	}
	if err := repo.RemoveFavorite(context.Background(), "marker-1", "user-1"); err != nil {
		t.Fatalf("remove favorite: %v", err)
	}
	if err := repo.InsertReport(context.Background(), "marker-1", "user-2", "spam"); err != nil {
		t.Fatalf("insert report: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresMarkerErrors(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO markers`).
		WithArgs(pgxmock.AnyArg(), "Cafe X", "", 52.23, 21.01, "user-1", false).
		WillReturnError(errMarker)

	mock.ExpectQuery(`SELECT id, name, address, lat, lng, added_by, confirmed, created_at`).
		WithArgs("marker-err").
		WillReturnError(errMarker)

	mock.ExpectExec(`UPDATE markers SET confirmed = TRUE`).
		WithArgs("marker-err").
		WillReturnError(errMarker)

	repo := NewPostgresRepository(mock)
	if _, err := repo.Insert(context.Background(), Marker{Name: "Cafe X", Lat: 52.23, Lng: 21.01, AddedBy: "user-1"}); err == nil {
		t.Fatalf("expected insert error")
	}
	if _, err := repo.GetByID(context.Background(), "marker-err"); err == nil {
		t.Fatalf("expected get error")
	}
	if err := repo.SetConfirmed(context.Background(), "marker-err"); err == nil {
		t.Fatalf("expected confirm error")
	}
}
