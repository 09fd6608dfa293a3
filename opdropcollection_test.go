package dataapi

import "testing"

func TestExecDeleteCollectionRemovesIt(t *testing.T) {
	env := testExecEnv(t)
	ExecCreateCollection(env, mustFilterParams(t, `{"name":"users"}`))

	res, err := ExecDeleteCollection(env, mustFilterParams(t, `{"name":"users"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status.Object().Get("ok").NumVal().String() != "1" {
		t.Fatal("expected ok=1")
	}

	names, _ := env.Store.ListCollections(env.Ctx, "ns")
	for _, n := range names {
		if n == "users" {
			t.Fatal("expected 'users' to be gone")
		}
	}
}

func TestExecDeleteCollectionMissingIsNotAnError(t *testing.T) {
	env := testExecEnv(t)
	res, err := ExecDeleteCollection(env, mustFilterParams(t, `{"name":"nosuch"}`))
	if err != nil {
		t.Fatalf("expected dropping a missing collection to succeed, got %v", err)
	}
	if res.Status.Object().Get("ok").NumVal().String() != "1" {
		t.Fatal("expected ok=1")
	}
}

func TestExecDeleteCollectionReleasesIndexBudget(t *testing.T) {
	env := testExecEnv(t)
	ExecCreateCollection(env, mustFilterParams(t, `{"name":"users"}`))
	if env.Budget.InUse() == 0 {
		t.Fatal("expected create to have consumed index budget")
	}
	ExecDeleteCollection(env, mustFilterParams(t, `{"name":"users"}`))
	if env.Budget.InUse() != 0 {
		t.Fatalf("expected drop to release the index budget, got %d in use", env.Budget.InUse())
	}
}
