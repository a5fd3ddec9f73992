// Package workitem discovers Gir*.toml configurations under the search paths
// given on the command line and turns each of them into an Item: the config
// file, the crate directory it generates into, its sys classification and the
// exact argument list the gir generator will be started with.
//
// Discovery never creates directories and never caches anything between
// runs. Items are classified as "sys" purely from the base name of their
// output directory; the classification is fixed when the Item is built.
package workitem
