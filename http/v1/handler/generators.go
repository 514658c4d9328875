package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/detection-reporter/internal/constants"
	"github.com/benedict-erwin/detection-reporter/internal/generators"
	"github.com/benedict-erwin/detection-reporter/pkg/response"
)

// ListGenerators returns the available canned analysis names
func ListGenerators(c echo.Context) error {
	data := map[string]interface{}{
		"generators": generators.Names(),
	}
	return response.Success(c, data)
}

// RunGenerator runs one canned analysis over the primary dataset
func RunGenerator(c echo.Context) error {
	sess, ok := loadSession(c)
	if !ok {
		return nil
	}
	if sess.Primary == nil {
		return response.FailWithCode(c, constants.CodeNoDataset)
	}

	name := c.Param("name")
	gen, found := generators.Lookup(name)
	if !found {
		return response.FailWithCodeAndMessage(c, constants.CodeGeneratorUnknown, name)
	}

	table := gen(sess.Primary)
	data := map[string]interface{}{
		"generator": name,
		"table":     table,
	}
	if table == nil || table.Len() == 0 {
		return response.General(c, 200, constants.CodeEmptyResult, data,
			constants.GetErrorMessage(constants.CodeEmptyResult))
	}
	return response.Success(c, data)
}
