/*
Package ovhdns manages the DNS records of a single zone hosted at OVH.

Usage will always start with [New],
which returns a [Zone] bound to a domain name.
New requires a registrar [Provider],
usually registered with [UsingOVH] and a set of API credentials.
Additional configuration options are listed in the docs for New.

Record mutations at the registrar are staged:
every successful create or delete is followed by a zone refresh,
which commits pending edits into the live, served zone.
*/
package ovhdns
