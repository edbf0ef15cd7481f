// Package mocks provides hand-written test doubles for the store interfaces.
// Each mock exposes XxxFn override hooks plus default return fields, and
// counts calls so tests can verify orchestration. Service-level mocks live
// next to their consumers so they can depend on the service packages without
// creating cycles with those packages' own tests.
package mocks
