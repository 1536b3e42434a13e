package config

import "testing"

func TestMapAccessors(t *testing.T) {
	m := Map{
		"name":    String("svc"),
		"workers": Int(4),
		"debug":   Bool(true),
		"nested":  Map{"k": String("v")},
	}

	if v, ok := m.GetString("name"); !ok || v != "svc" {
		t.Fatalf("GetString: got (%q, %v)", v, ok)
	}
	if v, ok := m.GetInt("workers"); !ok || v != 4 {
		t.Fatalf("GetInt: got (%d, %v)", v, ok)
	}
	if v, ok := m.GetBool("debug"); !ok || !v {
		t.Fatalf("GetBool: got (%v, %v)", v, ok)
	}
	if v, ok := m.GetMap("nested"); !ok || v["k"] != String("v") {
		t.Fatalf("GetMap: got (%v, %v)", v, ok)
	}
	if _, ok := m.GetString("missing"); ok {
		t.Fatal("expected missing key to report absent")
	}
	if _, ok := m.GetString("workers"); ok {
		t.Fatal("expected type mismatch to report absent rather than panic")
	}
}

func TestMapEntriesSingle(t *testing.T) {
	m := Map{"log_target": Map{"url": String("console://stderr")}}
	entries, err := m.Entries("log_target")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if v, _ := entries[0].GetString("url"); v != "console://stderr" {
		t.Fatalf("unexpected url %q", v)
	}
}

func TestMapEntriesArray(t *testing.T) {
	m := Map{"log_target": Array{
		Map{"url": String("console://stderr")},
		Map{"url": String("file:///var/log/app.log")},
	}}
	entries, err := m.Entries("log_target")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestMapEntriesMissingKeyReturnsNil(t *testing.T) {
	entries, err := Map{}.Entries("log_target")
	if err != nil {
		t.Fatal(err)
	}
	if entries != nil {
		t.Fatalf("expected nil for missing key, got %v", entries)
	}
}

func TestMapEntriesWrongShapeErrors(t *testing.T) {
	m := Map{"log_target": String("not a map")}
	if _, err := m.Entries("log_target"); err == nil {
		t.Fatal("expected error for non map/array value")
	}
}

func TestMapEntriesArrayOfNonMapErrors(t *testing.T) {
	m := Map{"log_target": Array{String("oops")}}
	if _, err := m.Entries("log_target"); err == nil {
		t.Fatal("expected error for array entry that isn't a map")
	}
}
