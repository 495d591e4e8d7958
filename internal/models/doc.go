// Package models holds the plain data types shared across the importer,
// services, and CLI layers.
//
// Types here carry no behavior beyond small accessors and have no
// dependencies, so every other package can import them freely.
package models
