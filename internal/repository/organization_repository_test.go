package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/reserve-my-spot/internal/model"
)

func TestCreateOrganizationLowercasesEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO organizations")).WillReturnResult(sqlmock.NewResult(4, 1))

	o := &model.Organization{Name: "Central Mall", Email: "  Owner@Example.COM "}
	if err := NewOrganizationRepo(db).CreateOrganization(context.Background(), o); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	if o.ID != 4 || o.Email != "owner@example.com" {
		t.Fatalf("org = {ID:%d Email:%q}, want {4 owner@example.com}", o.ID, o.Email)
	}
}

func TestCreateOrganizationEmailExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO organizations")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err = NewOrganizationRepo(db).CreateOrganization(context.Background(), &model.Organization{Email: "a@b.co"})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
}

func TestUpdateSlotOwnership(t *testing.T) {
	tests := []struct {
		name string
		rows *sqlmock.Rows
		want error
	}{
		{"unknown slot", sqlmock.NewRows([]string{"organization_id"}), ErrNotFound},
		{"other organization", sqlmock.NewRows([]string{"organization_id"}).AddRow(2), ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock.New: %v", err)
			}
			defer db.Close()
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta("SELECT organization_id FROM parking_slots WHERE id = ? FOR UPDATE")).
				WithArgs(9).WillReturnRows(tt.rows)
			mock.ExpectRollback()

			active := false
			_, err = NewSlotRepo(db).UpdateSlot(context.Background(), 1, 9, model.SlotUpdate{IsActive: &active})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("expectations: %v", err)
			}
		})
	}
}
