// Package mlnet is your in-memory playground for building, exploring, and
// analyzing multilayer networks in Go.
//
// 🚀 What is mlnet?
//
//	A modern, thread-safe library that brings together:
//
//	  • Core primitives: actors, layers, and (actor,layer) nodes, mutated
//	    safely under locks
//	  • Matrix views: supra-adjacency and modularity matrices over a
//	    sparse CSR/CSC representation
//	  • Community detection: GLouvain, LART, PMM, ACL, and the Abacus
//	    frequent-itemset ensemble
//
// ✨ Why choose mlnet?
//
//   - Beginner-friendly    — minimal API, clear, intuitive naming
//   - Rock-solid           — built-in R/W locks ensure thread-safety
//   - Extensible           — functional options tune every algorithm
//   - Pure Go              — gonum for linear algebra, no cgo
//
// Under the hood, everything is organized under purpose-built subpackages:
//
//	network/       — Network, Actor, Layer, Node, Edge & attribute stores
//	sparsemat/     — CSR/CSC sparse matrices
//	matrixbuilder/ — supra-adjacency and modularity matrix construction
//	modularity/    — standard and extended (overlap-aware) modularity
//	community/     — glouvain, lart, pmm, acl, abacus
//
// Quick ASCII example:
//
//	  layer 1: A───B       layer 2: A───B
//	           │                    │
//	           C                    C───D
//
//	two layers sharing actors A, B, C, with D appearing only in layer 2.
//
// Dive into SPEC_FULL.md for the full module and operation inventory.
package mlnet
