// restquery creates, seeds and searches SQL tables described by YAML schemas,
// using the same prefix-keyed filter language as the search library.
//
// Usage:
//
//	# Create the doctors table from ./schemas/doctors.yml
//	restquery create-table doctors
//
//	# Load rows from a JSON array
//	restquery seed doctors --file doctors.json
//
//	# Search the second page of approved doctors, newest first
//	restquery search doctors --page 1 --per-page 20 \
//	    --sort '["LicenseFrom","DESC"]' --filter '{"equal_Approved":"true"}'
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
