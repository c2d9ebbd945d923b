// Command designcatalog harvests bibliographic records from design
// repositories, keeps the relevant Portuguese UX titles and reconciles them
// against the curated catalog.
package main
