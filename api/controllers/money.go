package controllers

import "github.com/angelmondragon/storefront/pkg/enums"

func formatMinor(currency enums.Currency, minor int64) string {
	return currency.Format(currency.FromMinor(minor))
}
