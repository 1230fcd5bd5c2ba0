// Package migrations embeds SQL migration files.
package migrations

import "embed"

// CertificatesFS contains the schema for the postgres artifact store.
//
//go:embed certificates/*.sql
var CertificatesFS embed.FS

// CertificatesDir is the directory within CertificatesFS where migrations live.
const CertificatesDir = "certificates"
