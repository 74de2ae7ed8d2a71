// Package formschema loads property form definitions from JSON or YAML files.
// The bundled schemas live under schemas/: "king-county" is the canonical
// form (5-digit ZIP codes, condition 1-5) and "pincode" is the deprecated
// variant (6-digit pincodes, condition 1-10) kept for older deployments.
package formschema
