// Package services implements the driving ports. Each service takes its
// driven ports through its constructor.
package services
