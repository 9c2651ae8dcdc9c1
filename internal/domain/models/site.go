// internal/domain/models/site.go
package models

// DefaultSiteName is the name shown in the page header and titles.
const DefaultSiteName = "My Chess Style"
