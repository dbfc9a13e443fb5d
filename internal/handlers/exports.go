package handlers

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"example.com/shopping-planner/backend/internal/shopping"
)

const csvTimeLayout = "20060102-150405"

var csvHeader = []string{
	"position",
	"name",
	"category",
	"quantity",
	"suggested_price",
	"resolved_price",
	"cost",
	"catalog_id",
	"reference_code",
	"in_stock",
	"available_stock",
	"discount",
}

// ExportCSV генерирует список покупок и отдает его CSV-файлом.
func (h *ShoppingHandler) ExportCSV(c echo.Context) error {
	response, err := h.generate(c)
	if err != nil {
		return h.writeError(c, err)
	}

	data, err := shoppingListCSV(response)
	if err != nil {
		return serverError(c)
	}

	filename := "shopping-list-" + response.GeneratedAt.Format(csvTimeLayout) + ".csv"
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", data)
}

func shoppingListCSV(response shopping.Response) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, err
	}

	for i, item := range response.Items {
		catalogID := ""
		if item.CatalogID != nil {
			catalogID = strconv.FormatInt(*item.CatalogID, 10)
		}

		record := []string{
			strconv.Itoa(i + 1),
			item.Name,
			item.Category,
			strconv.Itoa(item.Quantity),
			item.UnitPrice.StringFixed(2),
			item.ResolvedPrice.StringFixed(2),
			item.Cost().StringFixed(2),
			catalogID,
			item.ReferenceCode,
			strconv.FormatBool(item.InStock),
			strconv.Itoa(item.AvailableStock),
			item.Discount.String(),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	total := []string{"", "total", "", strconv.Itoa(response.Summary.TotalItems), "", "", response.Summary.EstimatedCost.StringFixed(2), "", "", "", "", ""}
	if err := writer.Write(total); err != nil {
		return nil, err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
