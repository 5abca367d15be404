// Package climate turns reanalysis (ERA5) and seasonal forecast (SEAS5)
// precipitation grids into quarterly signals.
//
// Grids are read from NetCDF, averaged over an Area, converted from metres to
// millimetres and summed per calendar quarter. Anomalies come in two forms:
// pooled (one mean and standard deviation for every quarter) and seasonal (one
// climatology per quarter-of-year). Only the seasonal form is a valid input to
// forecast risk classification.
package climate
