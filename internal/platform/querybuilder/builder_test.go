package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("root", "body").
		From("documents").
		Where(Eq("root", "attendance")).
		ForUpdate().
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT root, body FROM documents WHERE root = $1 FOR UPDATE"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "attendance" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_InAndPrefix(t *testing.T) {
	query, args, err := Select("root").
		From("documents").
		Where(In("root", "dates", "schedule"), HasPrefix("root", "fuss_")).
		OrderBy("root").
		Limit(5).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := `SELECT root FROM documents WHERE root IN ($1, $2) AND root LIKE $3 ESCAPE '\' ORDER BY root LIMIT 5`
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[2] != `fuss\_%` {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_Upsert(t *testing.T) {
	query, args, err := InsertInto("documents").
		Columns("root", "body").
		Values("playerGroups", `{"Mari":"1"}`).
		OnConflictUpdate([]string{"root"}, "body = EXCLUDED.body", "updated_at = NOW()").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO documents (root, body) VALUES ($1, $2) ON CONFLICT (root) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "playerGroups" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_ValueCountMismatch(t *testing.T) {
	if _, _, err := InsertInto("documents").Columns("root", "body").Values("x").ToSQL(); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("documents").Where(Eq("root", "feedback")).ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}
	if query != "DELETE FROM documents WHERE root = $1" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 1 {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := DeleteFrom("documents").ToSQL(); err == nil {
		t.Fatalf("expected unconditioned delete to be refused")
	}
}
