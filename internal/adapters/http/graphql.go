package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/tzmonths/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	monthStartsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MonthStarts",
		Fields: graphql.Fields{
			"timeZone": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.MonthStarts).TimeZone, nil
				},
			},
			"monthStarts": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.NewList(graphql.String)),
				Description: "UTC instants of local midnight on the 1st of each month; null where one could not be built",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.MonthStarts).Starts, nil
				},
			},
		},
	})

	stringArg := func(desc string) *graphql.ArgumentConfig {
		return &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String), Description: desc}
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"monthStarts": &graphql.Field{
				Type:        monthStartsType,
				Description: "Month-start instants between two dates at a coordinate",
				Args: graphql.FieldConfigArgument{
					"lon":  stringArg("Longitude"),
					"lat":  stringArg("Latitude"),
					"from": stringArg("First date of the range"),
					"to":   stringArg("Last date of the range"),
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := domain.NewMonthsQuery(
						stringParam(p, "lon"),
						stringParam(p, "lat"),
						stringParam(p, "from"),
						stringParam(p, "to"),
					)
					res, err := deps.Months.Handle(p.Context, q)
					if err != nil {
						_, msg := domain.ErrorStatus(err)
						return nil, errors.New(msg)
					}
					return res, nil
				},
			},
			"timeZone": &graphql.Field{
				Type:        graphql.String,
				Description: "IANA time zone at a coordinate",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat, _ := p.Args["lat"].(float64)
					lon, _ := p.Args["lon"].(float64)
					zone, err := deps.Zones.Resolve(p.Context, lat, lon)
					if err != nil {
						return nil, errors.New("Unable to get time zone")
					}
					return zone, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func stringParam(p graphql.ResolveParams, name string) string {
	s, _ := p.Args[name].(string)
	return s
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
