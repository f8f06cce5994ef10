/*
Package device talks to the SprinkleX ESP8266 valve controller over plain
HTTP on the local network.

Firmware variants disagree on their responses: some answer JSON, some plain
text, and field names drift between builds. The client sniffs the known
spellings and falls back to defaults instead of failing.
*/
package device
