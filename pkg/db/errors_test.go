package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_orders_payment_reference"}

	if !IsUniqueViolation(pgxErr, "") {
		t.Fatal("expected any-constraint match for pgx unique violation")
	}
	if !IsUniqueViolation(pgxErr, "idx_orders_payment_reference") {
		t.Fatal("expected named-constraint match for pgx unique violation")
	}
	if IsUniqueViolation(pgxErr, "idx_seller_accounts_user_id") {
		t.Fatal("expected mismatch for different constraint name")
	}

	wrapped := fmt.Errorf("create order: %w", pgxErr)
	if !IsUniqueViolation(wrapped, "idx_orders_payment_reference") {
		t.Fatal("expected match through wrapped error")
	}
}

func TestIsUniqueViolationLibPQ(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "idx_orders_payment_reference"}
	if !IsUniqueViolation(pqErr, "idx_orders_payment_reference") {
		t.Fatal("expected match for lib/pq unique violation")
	}
}

func TestIsUniqueViolationIgnoresOtherErrors(t *testing.T) {
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error must not match")
	}
	if IsUniqueViolation(errors.New("connection reset"), "") {
		t.Fatal("plain errors must not match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatal("foreign key violation must not match")
	}
}
