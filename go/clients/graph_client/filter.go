package graph_client

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Escape makes s safe to embed in a single-quoted OData string literal.
func Escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// EqFilter builds "field eq 'value'".
func EqFilter(field, value string) string {
	return fmt.Sprintf("%s eq '%s'", field, Escape(value))
}

// StartsWithFilter builds "startswith(field,'value')".
func StartsWithFilter(field, value string) string {
	return fmt.Sprintf("startswith(%s,'%s')", field, Escape(value))
}

func query(filter, selectFields string, top int) string {
	v := url.Values{}
	if filter != "" {
		v.Set("$filter", filter)
	}
	if selectFields != "" {
		v.Set("$select", selectFields)
	}
	if top > 0 {
		v.Set("$top", strconv.Itoa(top))
	}
	return v.Encode()
}
