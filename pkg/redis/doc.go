// Package redis connects to the optional Redis tier that sits between the
// edge and the config service. It only handles connection setup and health;
// the key layout lives with the siteconfig Redis source.
package redis
