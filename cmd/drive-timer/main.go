// Command drive-timer runs the drive/rest compliance clock on a Raspberry Pi:
// three buttons in, a buzzer out, state over MQTT and HTTP.
package main

func main() {
	Execute()
}
