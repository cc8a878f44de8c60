// Package fixture materializes declared trees of files and directories as
// test fixtures and keeps the history of how they were built.
//
// A Policy is defined once and creates fixtures:
//
//	policy := fixture.Define(fixture.WithUnixStyle(true))
//
//	base, err := policy.Create(ctx, fixture.Dir{
//		{Key: "a.txt", Node: fixture.Text("a")},
//		{Key: "b", Node: fixture.Dir{{Key: "a.txt", Node: fixture.Text("b-a")}}},
//	})
//
// Every Fixture is one generation of a lineage. AddFixtures layers another
// specification onto the same root, Fork duplicates the whole tree into a new
// root before layering, and Reset rebuilds everything the lineage declared.
// Fixtures never change after they have been returned. Operations that
// extend a fixture return a new one.
package fixture
