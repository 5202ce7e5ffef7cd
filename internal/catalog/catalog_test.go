package catalog

import (
	"testing"

	"urbangear/internal/models"

	"github.com/stretchr/testify/assert"
)

var testProducts = []models.Product{
	{ID: 1, Name: "Vintage Wash Tee", Price: 2499, Category: "Apparel"},
	{ID: 2, Name: "Tech Cargo Pants", Price: 5499, Category: "Apparel"},
	{ID: 5, Name: "Retro High-Top Sneakers", Price: 8999, Category: "Sneakers"},
	{ID: 6, Name: "Chunky Runner Trainers", Price: 9999, Category: "Sneakers"},
}

func TestFilterAndSortSearchIsCaseInsensitive(t *testing.T) {
	result := filterAndSort(testProducts, "RETRO", SortDefault)

	assert.Len(t, result, 1)
	assert.Equal(t, int64(5), result[0].ID)
}

func TestFilterAndSortNoMatches(t *testing.T) {
	result := filterAndSort(testProducts, "denim", SortDefault)
	assert.Empty(t, result)
}

func TestFilterAndSortPriceAscending(t *testing.T) {
	result := filterAndSort(testProducts, "", SortPriceAsc)

	prices := make([]int64, len(result))
	for i, p := range result {
		prices[i] = p.Price
	}
	assert.Equal(t, []int64{2499, 5499, 8999, 9999}, prices)
}

func TestFilterAndSortPriceDescending(t *testing.T) {
	result := filterAndSort(testProducts, "", SortPriceDesc)

	assert.Equal(t, int64(9999), result[0].Price)
	assert.Equal(t, int64(2499), result[len(result)-1].Price)
}

func TestFilterAndSortDefaultKeepsCatalogOrder(t *testing.T) {
	result := filterAndSort(testProducts, "", SortDefault)

	ids := make([]int64, len(result))
	for i, p := range result {
		ids[i] = p.ID
	}
	assert.Equal(t, []int64{1, 2, 5, 6}, ids)
}

func TestFilterAndSortDoesNotMutateInput(t *testing.T) {
	filterAndSort(testProducts, "", SortPriceDesc)

	assert.Equal(t, int64(1), testProducts[0].ID)
	assert.Equal(t, int64(6), testProducts[3].ID)
}
