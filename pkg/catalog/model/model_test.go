package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestStatus_Valid(t *testing.T) {
	for _, s := range Statuses {
		if !s.Valid() {
			t.Fatalf("%s should be valid", s)
		}
	}
	if Status("Lost").Valid() {
		t.Fatal("Lost should be invalid")
	}
	if DefaultStatus != StatusMaintenance {
		t.Fatalf("default status = %s", DefaultStatus)
	}
}

func TestEntity_Has(t *testing.T) {
	if !BookEntity.Has("genre") || BookEntity.Has("name") {
		t.Fatal("book field registry mismatch")
	}
	if !AuthorEntity.Has(FieldID) || !AuthorEntity.Has(FieldVersion) {
		t.Fatal("author registry must include _id and __v")
	}
}

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: `"2022-10-15"`, want: time.Date(2022, 10, 15, 0, 0, 0, 0, time.UTC)},
		{in: `"2022-10-15T10:30:00Z"`, want: time.Date(2022, 10, 15, 10, 30, 0, 0, time.UTC)},
		{in: `"2022-10-15T10:30:00+02:00"`, want: time.Date(2022, 10, 15, 8, 30, 0, 0, time.UTC)},
		{in: `"2022-10-15T10:30:00"`, want: time.Date(2022, 10, 15, 10, 30, 0, 0, time.UTC)},
		{in: `"15/10/2022"`, wantErr: true},
		{in: `12`, wantErr: true},
	}
	for _, tt := range tests {
		var d Date
		err := json.Unmarshal([]byte(tt.in), &d)
		if (err != nil) != tt.wantErr {
			t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if !tt.wantErr && !d.Time.Equal(tt.want) {
			t.Fatalf("Unmarshal(%s) = %v, want %v", tt.in, d.Time, tt.want)
		}
	}
}

func TestStartOfDay(t *testing.T) {
	got := StartOfDay(time.Date(2022, 10, 15, 23, 59, 0, 0, time.UTC))
	if !got.Equal(time.Date(2022, 10, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("StartOfDay() = %v", got)
	}
}
