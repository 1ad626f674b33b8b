package graphql_api

import (
	"github.com/graphql-go/graphql"

	"shipdesk/internal/models"
)

func newSchema(a *GraphQLAPI) (graphql.Schema, error) {
	statusEnum := graphql.NewEnum(graphql.EnumConfig{
		Name: "ShipmentStatus",
		Values: graphql.EnumValueConfigMap{
			"PENDING":          &graphql.EnumValueConfig{Value: models.StatusPending},
			"PICKED_UP":        &graphql.EnumValueConfig{Value: models.StatusPickedUp},
			"IN_TRANSIT":       &graphql.EnumValueConfig{Value: models.StatusInTransit},
			"OUT_FOR_DELIVERY": &graphql.EnumValueConfig{Value: models.StatusOutForDelivery},
			"DELIVERED":        &graphql.EnumValueConfig{Value: models.StatusDelivered},
			"CANCELLED":        &graphql.EnumValueConfig{Value: models.StatusCancelled},
			"ON_HOLD":          &graphql.EnumValueConfig{Value: models.StatusOnHold},
		},
	})

	roleEnum := graphql.NewEnum(graphql.EnumConfig{
		Name: "Role",
		Values: graphql.EnumValueConfigMap{
			"ADMIN":    &graphql.EnumValueConfig{Value: models.RoleAdmin},
			"EMPLOYEE": &graphql.EnumValueConfig{Value: models.RoleEmployee},
		},
	})

	sortFieldEnum := graphql.NewEnum(graphql.EnumConfig{
		Name: "ShipmentSortField",
		Values: graphql.EnumValueConfigMap{
			"CREATED_AT":         &graphql.EnumValueConfig{Value: "createdAt"},
			"UPDATED_AT":         &graphql.EnumValueConfig{Value: "updatedAt"},
			"TRACKING_NUMBER":    &graphql.EnumValueConfig{Value: "trackingNumber"},
			"STATUS":             &graphql.EnumValueConfig{Value: "status"},
			"SHIPPER_NAME":       &graphql.EnumValueConfig{Value: "shipperName"},
			"CONSIGNEE_NAME":     &graphql.EnumValueConfig{Value: "consigneeName"},
			"PICKUP_DATE":        &graphql.EnumValueConfig{Value: "pickupDate"},
			"ESTIMATED_DELIVERY": &graphql.EnumValueConfig{Value: "estimatedDelivery"},
			"RATE":               &graphql.EnumValueConfig{Value: "rate"},
		},
	})

	sortOrderEnum := graphql.NewEnum(graphql.EnumConfig{
		Name: "SortOrder",
		Values: graphql.EnumValueConfigMap{
			"ASC":  &graphql.EnumValueConfig{Value: models.SortAsc},
			"DESC": &graphql.EnumValueConfig{Value: models.SortDesc},
		},
	})

	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"address":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"city":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"state":      &graphql.Field{Type: graphql.String},
			"country":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"postalCode": &graphql.Field{Type: graphql.String},
			"latitude":   &graphql.Field{Type: graphql.Float},
			"longitude":  &graphql.Field{Type: graphql.Float},
		},
	})

	dimensionsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Dimensions",
		Fields: graphql.Fields{
			"id":     &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"length": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"width":  &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"height": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"email":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"firstName": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"lastName":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"role":      &graphql.Field{Type: graphql.NewNonNull(roleEnum)},
			"isActive":  &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
			"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		},
	})

	trackingEventType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TrackingEvent",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"status":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"eventTime":   &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
			"location":    &graphql.Field{Type: locationType},
			"description": &graphql.Field{Type: graphql.String},
			"createdAt":   &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		},
	})

	shipmentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Shipment",
		Fields: graphql.Fields{
			"id":                &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"trackingNumber":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"shipperName":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"shipperPhone":      &graphql.Field{Type: graphql.String},
			"consigneeName":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"consigneePhone":    &graphql.Field{Type: graphql.String},
			"pickupLocation":    &graphql.Field{Type: locationType},
			"deliveryLocation":  &graphql.Field{Type: locationType},
			"dimensions":        &graphql.Field{Type: dimensionsType},
			"carrierName":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"carrierPhone":      &graphql.Field{Type: graphql.String},
			"weight":            &graphql.Field{Type: graphql.Float},
			"rate":              &graphql.Field{Type: graphql.Float},
			"currency":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"status":            &graphql.Field{Type: graphql.NewNonNull(statusEnum)},
			"isFlagged":         &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"flagReason":        &graphql.Field{Type: graphql.String},
			"pickupDate":        &graphql.Field{Type: graphql.DateTime},
			"estimatedDelivery": &graphql.Field{Type: graphql.DateTime},
			"actualDelivery":    &graphql.Field{Type: graphql.DateTime},
			"notes":             &graphql.Field{Type: graphql.String},
			"createdBy":         &graphql.Field{Type: userType},
			"updatedBy":         &graphql.Field{Type: userType},
			"events": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(trackingEventType))),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sh, _ := p.Source.(*models.Shipment)
					if sh == nil || sh.Events == nil {
						return []*models.TrackingEvent{}, nil
					}
					return sh.Events, nil
				},
			},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
			"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		},
	})

	pageInfoType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PageInfo",
		Fields: graphql.Fields{
			"currentPage":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"totalPages":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"totalCount":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"hasNextPage":     &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"hasPreviousPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		},
	})

	shipmentEdgeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ShipmentEdge",
		Fields: graphql.Fields{
			"node": &graphql.Field{
				Type: graphql.NewNonNull(shipmentType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source, nil
				},
			},
			"cursor": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sh := p.Source.(*models.Shipment)
					return shipmentCursor(sh.ID), nil
				},
			},
		},
	})

	shipmentConnectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ShipmentConnection",
		Fields: graphql.Fields{
			"items": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(shipmentType))),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*models.ShipmentPage).Items, nil
				},
			},
			"edges": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(shipmentEdgeType))),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*models.ShipmentPage).Items, nil
				},
			},
			"pageInfo": &graphql.Field{Type: graphql.NewNonNull(pageInfoType)},
		},
	})

	statusCountType := graphql.NewObject(graphql.ObjectConfig{
		Name: "StatusCount",
		Fields: graphql.Fields{
			"status": &graphql.Field{Type: graphql.NewNonNull(statusEnum)},
			"count":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	shipmentStatsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ShipmentStats",
		Fields: graphql.Fields{
			"total":           &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"perStatusCounts": &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(statusCountType)))},
			"averageRate":     &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	authPayloadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.Fields{
			"accessToken":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"refreshToken": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"user":         &graphql.Field{Type: graphql.NewNonNull(userType)},
		},
	})

	locationInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "LocationInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"address":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"city":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"state":      &graphql.InputObjectFieldConfig{Type: graphql.String},
			"country":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"postalCode": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"latitude":   &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"longitude":  &graphql.InputObjectFieldConfig{Type: graphql.Float},
		},
	})

	dimensionsInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "DimensionsInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"length": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"width":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"height": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	createShipmentInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateShipmentInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"trackingNumber":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"shipperName":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"shipperPhone":      &graphql.InputObjectFieldConfig{Type: graphql.String},
			"consigneeName":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"consigneePhone":    &graphql.InputObjectFieldConfig{Type: graphql.String},
			"pickupLocation":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(locationInput)},
			"deliveryLocation":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(locationInput)},
			"dimensions":        &graphql.InputObjectFieldConfig{Type: dimensionsInput},
			"carrierName":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"carrierPhone":      &graphql.InputObjectFieldConfig{Type: graphql.String},
			"weight":            &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"rate":              &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"currency":          &graphql.InputObjectFieldConfig{Type: graphql.String},
			"pickupDate":        &graphql.InputObjectFieldConfig{Type: graphql.DateTime},
			"estimatedDelivery": &graphql.InputObjectFieldConfig{Type: graphql.DateTime},
			"notes":             &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	updateShipmentInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UpdateShipmentInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"shipperName":       &graphql.InputObjectFieldConfig{Type: graphql.String},
			"shipperPhone":      &graphql.InputObjectFieldConfig{Type: graphql.String},
			"consigneeName":     &graphql.InputObjectFieldConfig{Type: graphql.String},
			"consigneePhone":    &graphql.InputObjectFieldConfig{Type: graphql.String},
			"pickupLocation":    &graphql.InputObjectFieldConfig{Type: locationInput},
			"deliveryLocation":  &graphql.InputObjectFieldConfig{Type: locationInput},
			"dimensions":        &graphql.InputObjectFieldConfig{Type: dimensionsInput},
			"carrierName":       &graphql.InputObjectFieldConfig{Type: graphql.String},
			"carrierPhone":      &graphql.InputObjectFieldConfig{Type: graphql.String},
			"weight":            &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"rate":              &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"currency":          &graphql.InputObjectFieldConfig{Type: graphql.String},
			"pickupDate":        &graphql.InputObjectFieldConfig{Type: graphql.DateTime},
			"estimatedDelivery": &graphql.InputObjectFieldConfig{Type: graphql.DateTime},
			"notes":             &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	dateRangeInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "DateRangeInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"from": &graphql.InputObjectFieldConfig{Type: graphql.DateTime},
			"to":   &graphql.InputObjectFieldConfig{Type: graphql.DateTime},
		},
	})

	rateRangeInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "RateRangeInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"min": &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"max": &graphql.InputObjectFieldConfig{Type: graphql.Float},
		},
	})

	filterInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ShipmentFilterInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"status":      &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(statusEnum))},
			"carrierName": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"isFlagged":   &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
			"dateRange":   &graphql.InputObjectFieldConfig{Type: dateRangeInput},
			"rateRange":   &graphql.InputObjectFieldConfig{Type: rateRangeInput},
			"searchTerm":  &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	sortInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ShipmentSortInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"field": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(sortFieldEnum)},
			"order": &graphql.InputObjectFieldConfig{Type: sortOrderEnum},
		},
	})

	pageInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "PageInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"page":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"limit": &graphql.InputObjectFieldConfig{Type: graphql.Int},
		},
	})

	registerInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "RegisterInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"email":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"firstName": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"lastName":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"role":      &graphql.InputObjectFieldConfig{Type: roleEnum},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"shipments": &graphql.Field{
				Type: graphql.NewNonNull(shipmentConnectionType),
				Args: graphql.FieldConfigArgument{
					"filter": &graphql.ArgumentConfig{Type: filterInput},
					"sort":   &graphql.ArgumentConfig{Type: sortInput},
					"page":   &graphql.ArgumentConfig{Type: pageInput},
				},
				Resolve: resolve(func(p graphql.ResolveParams) (interface{}, error) {
					u, err := actor(p.Context)
					if err != nil {
						return nil, err
					}
					var filter models.ShipmentFilter
					if m, ok := p.Args["filter"].(map[string]interface{}); ok {
						filter = decodeFilter(m)
					}
					var sort *models.ShipmentSort
					if m, ok := p.Args["sort"].(map[string]interface{}); ok {
						sort = decodeSort(m)
					}
					var page models.PageInput
					if m, ok := p.Args["page"].(map[string]interface{}); ok {
						page = decodePage(m)
					}
					return a.shipments.List(p.Context, u, filter, sort, page, loadersFrom(p.Context))
				}),
			},
			"shipment": &graphql.Field{
				Type: shipmentType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: resolve(func(p graphql.ResolveParams) (interface{}, error) {
					u, err := actor(p.Context)
					if err != nil {
						return nil, err
					}
					id, err := parseID(p.Args["id"])
					if err != nil {
						return nil, err
					}
					sh, err := a.shipments.GetByID(p.Context, u, id, loadersFrom(p.Context))
					if err != nil || sh == nil {
						return nil, err
					}
					return sh, nil
				}),
			},
			"shipmentByTrackingNumber": &graphql.Field{
				Type: shipmentType,
				Args: graphql.FieldConfigArgument{
					"trackingNumber": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: resolve(func(p graphql.ResolveParams) (interface{}, error) {
					tn, _ := p.Args["trackingNumber"].(string)
					sh, err := a.shipments.GetByTrackingNumber(p.Context, tn, loadersFrom(p.Context))
					if err != nil || sh == nil {
						return nil, err
					}
					return sh, nil
				}),
			},
			"shipmentStats": &graphql.Field{
				Type: graphql.NewNonNull(shipmentStatsType),
				Resolve: resolve(func(p graphql.ResolveParams) (interface{}, error) {
					u, err := actor(p.Context)
					if err != nil {
						return nil, err
					}
					return a.shipments.Stats(p.Context, u)
				}),
			},
			"me": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Resolve: resolve(func(p graphql.ResolveParams) (interface{}, error) {
					return requireActor(p.Context)
				}),
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createShipment": &graphql.Field{
				Type: graphql.NewNonNull(shipmentType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createShipmentInput)},
				},
				Resolve: resolve(func(p graphql.ResolveParams) (interface{}, error) {
					u, err := actor(p.Context)
					if err != nil {
						return nil, err
					}
					in, _ := p.Args["input"].(map[string]interface{})
					return a.shipments.Create(p.Context, u, decodeCreateInput(in), loadersFrom(p.Context))
				}),
			},
			"updateShipment": &graphql.Field{
				Type: graphql.NewNonNull(shipmentType),
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(updateShipmentInput)},
				},
				Resolve: resolve(func(p graphql.ResolveParams) (interface{}, error) {
					u, err := actor(p.Context)
					if err != nil {
						return nil, err
					}
					id, err := parseID(p.Args["id"])
					if err != nil {
						return nil, err
					}
					in, _ := p.Args["input"].(map[string]interface{})
					return a.shipments.Update(p.Context, u, id, decodeUpdateInput(in), loadersFrom(p.Context))
				}),
			},
			"updateShipmentStatus": &graphql.Field{
				Type: graphql.NewNonNull(shipmentType),
				Args: graphql.FieldConfigArgument{
					"id":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"status": &graphql.ArgumentConfig{Type: graphql.NewNonNull(statusEnum)},
				},
				Resolve: resolve(func(p graphql.ResolveParams) (interface{}, error) {
					u, err := actor(p.Context)
					if err != nil {
						return nil, err
					}
					id, err := parseID(p.Args["id"])
					if err != nil {
						return nil, err
					}
					status, _ := p.Args["status"].(string)
					return a.shipments.UpdateStatus(p.Context, u, id, status, loadersFrom(p.Context))
				}),
			},
			"flagShipment": &graphql.Field{
				Type: graphql.NewNonNull(shipmentType),
				Args: graphql.FieldConfigArgument{
					"id":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"reason": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: resolve(func(p graphql.ResolveParams) (interface{}, error) {
					u, err := actor(p.Context)
					if err != nil {
						return nil, err
					}
					id, err := parseID(p.Args["id"])
					if err != nil {
						return nil, err
					}
					reason, _ := p.Args["reason"].(string)
					return a.shipments.Flag(p.Context, u, id, reason, loadersFrom(p.Context))
				}),
			},
			"unflagShipment": &graphql.Field{
				Type: graphql.NewNonNull(shipmentType),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: resolve(func(p graphql.ResolveParams) (interface{}, error) {
					u, err := actor(p.Context)
					if err != nil {
						return nil, err
					}
					id, err := parseID(p.Args["id"])
					if err != nil {
						return nil, err
					}
					return a.shipments.Unflag(p.Context, u, id, loadersFrom(p.Context))
				}),
			},
			"deleteShipment": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: resolve(func(p graphql.ResolveParams) (interface{}, error) {
					u, err := actor(p.Context)
					if err != nil {
						return nil, err
					}
					id, err := parseID(p.Args["id"])
					if err != nil {
						return nil, err
					}
					return a.shipments.Delete(p.Context, u, id)
				}),
			},
			"register": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(registerInput)},
				},
				Resolve: resolve(func(p graphql.ResolveParams) (interface{}, error) {
					in, _ := p.Args["input"].(map[string]interface{})
					role := ""
					if r, ok := in["role"].(string); ok {
						role = r
					}
					return a.auth.Register(p.Context, models.UserCreateInput{
						Email:     reqString(in, "email"),
						Password:  reqString(in, "password"),
						FirstName: reqString(in, "firstName"),
						LastName:  reqString(in, "lastName"),
						Role:      role,
					})
				}),
			},
			"login": &graphql.Field{
				Type: graphql.NewNonNull(authPayloadType),
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: resolve(func(p graphql.ResolveParams) (interface{}, error) {
					email, _ := p.Args["email"].(string)
					password, _ := p.Args["password"].(string)
					return a.auth.Login(p.Context, email, password)
				}),
			},
			"refreshToken": &graphql.Field{
				Type: graphql.NewNonNull(authPayloadType),
				Args: graphql.FieldConfigArgument{
					"refreshToken": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: resolve(func(p graphql.ResolveParams) (interface{}, error) {
					token, _ := p.Args["refreshToken"].(string)
					return a.auth.Refresh(p.Context, token)
				}),
			},
			"logout": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"refreshToken": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: resolve(func(p graphql.ResolveParams) (interface{}, error) {
					token, _ := p.Args["refreshToken"].(string)
					if err := a.auth.Logout(p.Context, token); err != nil {
						return nil, err
					}
					return true, nil
				}),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}
