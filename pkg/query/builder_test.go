package query_test

import (
	"strings"
	"testing"

	"github.com/newslens/reframe/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.
		NewProjectionMap("public", "analyses", "a").
		Project("id", "ID").
		Project("input_headline", "InputHeadline").
		Project("model_name", "ModelName").
		Project("created_at", "CreatedAt")
}

func TestBuildCount(t *testing.T) {
	b := query.NewBuilder(testProjection())

	sql, args := b.BuildCount()

	if sql != "SELECT COUNT(*) FROM public.analyses a" {
		t.Errorf("sql = %q", sql)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuildCountWithConditions(t *testing.T) {
	model := "gpt-4o"
	needle := "dog"

	b := query.NewBuilder(testProjection()).
		WhereEquals("ModelName", &model).
		WhereContains("InputHeadline", &needle)

	sql, args := b.BuildCount()

	if !strings.Contains(sql, "a.model_name = $1") {
		t.Errorf("sql missing equality clause: %q", sql)
	}
	if !strings.Contains(sql, "a.input_headline ILIKE $2") {
		t.Errorf("sql missing contains clause: %q", sql)
	}
	if len(args) != 2 {
		t.Fatalf("args = %v, want 2", args)
	}
	if args[1] != "%dog%" {
		t.Errorf("args[1] = %v, want %%dog%%", args[1])
	}
}

func TestBuildPage(t *testing.T) {
	b := query.NewBuilder(
		testProjection(),
		query.SortField{Field: "CreatedAt", Descending: true},
	)

	sql, args := b.BuildPage(2, 20)

	if !strings.Contains(sql, "ORDER BY a.created_at DESC") {
		t.Errorf("sql missing default sort: %q", sql)
	}
	if !strings.Contains(sql, "LIMIT 20 OFFSET 20") {
		t.Errorf("sql missing paging: %q", sql)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuildPageSortOverride(t *testing.T) {
	b := query.NewBuilder(
		testProjection(),
		query.SortField{Field: "CreatedAt", Descending: true},
	).OrderByFields([]query.SortField{{Field: "InputHeadline"}})

	sql, _ := b.BuildPage(1, 10)

	if !strings.Contains(sql, "ORDER BY a.input_headline ASC") {
		t.Errorf("sql = %q, want headline sort", sql)
	}
	if strings.Contains(sql, "created_at DESC") {
		t.Errorf("default sort should be overridden: %q", sql)
	}
}

func TestBuildSingle(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).BuildSingle("ID", "abc")

	if !strings.Contains(sql, "WHERE a.id = $1") {
		t.Errorf("sql = %q", sql)
	}
	if len(args) != 1 || args[0] != "abc" {
		t.Errorf("args = %v, want [abc]", args)
	}
}

func TestWhereSearch(t *testing.T) {
	needle := "attack"
	b := query.NewBuilder(testProjection()).
		WhereSearch(&needle, "InputHeadline", "ModelName")

	sql, args := b.BuildCount()

	if !strings.Contains(sql, "(a.input_headline ILIKE $1 OR a.model_name ILIKE $2)") {
		t.Errorf("sql = %q", sql)
	}
	if len(args) != 2 || args[0] != "%attack%" {
		t.Errorf("args = %v", args)
	}
}

func TestNilFiltersIgnored(t *testing.T) {
	b := query.NewBuilder(testProjection()).
		WhereEquals("ModelName", (*string)(nil)).
		WhereContains("InputHeadline", nil).
		WhereSearch(nil, "InputHeadline")

	sql, args := b.BuildCount()

	if strings.Contains(sql, "WHERE") {
		t.Errorf("sql = %q, want no conditions", sql)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestParseSortFields(t *testing.T) {
	fields := query.ParseSortFields("name,-createdAt, ,")

	if len(fields) != 2 {
		t.Fatalf("fields = %v, want 2", fields)
	}
	if fields[0] != (query.SortField{Field: "name"}) {
		t.Errorf("fields[0] = %v", fields[0])
	}
	if fields[1] != (query.SortField{Field: "createdAt", Descending: true}) {
		t.Errorf("fields[1] = %v", fields[1])
	}
}
