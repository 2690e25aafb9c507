package core

import (
	"math"
	"testing"
)

func TestAddSafe(t *testing.T) {
	if v, err := AddSafe(10, 5); err != nil || v != 15 {
		t.Fatalf("got %v %v", v, err)
	}
	if _, err := AddSafe(math.MaxInt64, 1); err == nil {
		t.Fatalf("expected overflow")
	}
}

func TestParseMemberID(t *testing.T) {
	id, err := ParseMemberID(" 12345 ")
	if err != nil || id != 12345 {
		t.Fatalf("got %v %v", id, err)
	}
	if _, err := ParseMemberID("abc"); err == nil {
		t.Fatalf("expected invalid id error")
	}
	if _, err := ParseMemberID("-4"); err == nil {
		t.Fatalf("expected non-positive error")
	}
}

func TestMemberPointsClone(t *testing.T) {
	p := NewMemberPoints(1, "6_4")
	p.OneTime[CategorySavage1] = struct{}{}
	cp := p.Clone()
	cp.OneTime[CategorySavage2] = struct{}{}
	if p.HasOneTime(CategorySavage2) {
		t.Fatal("clone shares one-time set")
	}
	if !cp.HasOneTime(CategorySavage1) {
		t.Fatal("clone lost one-time entry")
	}
}

func TestPointsCategory(t *testing.T) {
	if CategoryFCPF.Points() != 10 || CategoryVet.Points() != 10 {
		t.Fatal("fc_pf and vet are worth 10")
	}
	if !CategorySavage4_2.OneTime() || CategoryFCSavage.OneTime() {
		t.Fatal("only savage first clears are one-time")
	}
	if err := PointsCategory("NOPE").Validate(); err == nil {
		t.Fatal("expected unknown category error")
	}
}

func TestJobLookups(t *testing.T) {
	j, ok := JobByName("DarkKnight")
	if !ok || j.TLA != "DRK" || j.MainCategory != Tank.Name {
		t.Fatalf("got %+v %v", j, ok)
	}
	j, ok = JobByTLA("SGE")
	if !ok || j.SubCategory != ShieldHealer.Name {
		t.Fatalf("got %+v %v", j, ok)
	}
	if len(Jobs) != 31 {
		t.Fatalf("expected 31 jobs, got %d", len(Jobs))
	}
}
