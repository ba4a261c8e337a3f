package testutil

import "testing"

// Scenario groups Given/When/Then steps under one named subtest so the
// acceptance scenarios read top to bottom in test output.
func Scenario(t *testing.T, name string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Scenario "+name, fn)
}

func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}
