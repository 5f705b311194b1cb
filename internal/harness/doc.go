// Package harness provides scenario testing for the splitter.
//
// A scenario feeds an inline dump through the split engine, writing into an
// in-memory opener, then checks assertions against the artifacts and
// diagnostics the pass produced.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	default_database: legacy   # optional
//	input: |
//	  USE `d1`;
//	  CREATE TABLE `t1` (
//	  UNLOCK TABLES;
//	assertions:
//	  - type: artifact_equals
//	    path: d1/t1.sql
//	    content: |
//	      CREATE TABLE `t1` (
//	      UNLOCK TABLES;
//	  - type: diagnostic_count
//	    code: nested_table
//	    count: 0
//
// # Assertion Types
//
//   - artifact_equals: The artifact at path has exactly the given content
//   - artifact_exists: An artifact was written at path
//   - artifact_absent: No artifact was written at path
//   - artifact_count: Exactly count artifacts were written (optionally of one kind)
//   - diagnostic_count: Exactly count diagnostics match code and/or severity
//
// # Invariants
//
// Independently of its assertions, every run is checked for the properties
// any pass must have: never more than one table sink open, none left open at
// the end, the header replayed at the start of every table artifact, and
// exactly one line in every database artifact.
//
// # Determinism
//
// Runs use a discard logger and an in-memory opener, so the same scenario
// always yields the same snapshot for golden comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/well_formed.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
