package terminal

import (
	"fmt"
	"io"

	"UCLA-Rocket-Project/MTP40/internal/commander"
	"UCLA-Rocket-Project/MTP40/internal/globals"
)

type operation struct {
	name string
	run  func(sensor *commander.Sensor, log io.Writer) bool
}

// index 0 is the select all entry and has no run function
var availableOperations = []operation{
	{name: "Select All"},
	{name: "Read Address", run: readAddress},
	{name: "Read Gas Concentration", run: readGasConcentration},
	{name: "Read Air Pressure Reference", run: readAirPressureReference},
	{name: "Read Self Calibration Status", run: readSelfCalibrationStatus},
	{name: "Read Self Calibration Hours", run: readSelfCalibrationHours},
	{name: "Check Single Point Correction", run: checkSinglePointCorrection},
	{name: "Open Self Calibration", run: openSelfCalibration},
	{name: "Close Self Calibration", run: closeSelfCalibration},
}

func readAddress(sensor *commander.Sensor, log io.Writer) bool {
	fmt.Fprintf(log, "[Read Address]: asking the sensor for its address\n")

	address, err := sensor.GetAddress()
	if err != nil {
		fmt.Fprintf(log, "[Read Address]: %v\n", err)
		return false
	}

	fmt.Fprintf(log, "[Read Address]: sensor answered with address %d (0x%02X)\n", address, address)
	if address != sensor.Address() {
		fmt.Fprintf(log, "[Read Address]: expected address %d\n", sensor.Address())
		return false
	}
	return true
}

func readGasConcentration(sensor *commander.Sensor, log io.Writer) bool {
	fmt.Fprintf(log, "[Gas Concentration]: requesting CO2 level\n")

	ppm, err := sensor.GetGasConcentration()
	if err != nil {
		fmt.Fprintf(log, "[Gas Concentration]: %v\n", err)
		return false
	}

	fmt.Fprintf(log, "[Gas Concentration]: %d ppm\n", ppm)
	return true
}

func readAirPressureReference(sensor *commander.Sensor, log io.Writer) bool {
	fmt.Fprintf(log, "[Air Pressure Reference]: requesting air pressure reference\n")

	hPa, err := sensor.GetAirPressureReference()
	if err != nil {
		fmt.Fprintf(log, "[Air Pressure Reference]: %v\n", err)
		return false
	}

	fmt.Fprintf(log, "[Air Pressure Reference]: %.1f hPa\n", hPa)
	return true
}

func readSelfCalibrationStatus(sensor *commander.Sensor, log io.Writer) bool {
	status, err := sensor.GetSelfCalibrationStatus()
	if err != nil {
		fmt.Fprintf(log, "[Self Calibration Status]: %v\n", err)
		return false
	}

	switch status {
	case globals.SELF_CALIB_OPEN:
		fmt.Fprintf(log, "[Self Calibration Status]: open\n")
	case globals.SELF_CALIB_CLOSED:
		fmt.Fprintf(log, "[Self Calibration Status]: closed\n")
	default:
		fmt.Fprintf(log, "[Self Calibration Status]: unexpected status 0x%02X\n", status)
		return false
	}
	return true
}

func readSelfCalibrationHours(sensor *commander.Sensor, log io.Writer) bool {
	hours, err := sensor.GetSelfCalibrationHours()
	if err != nil {
		fmt.Fprintf(log, "[Self Calibration Hours]: %v\n", err)
		return false
	}

	fmt.Fprintf(log, "[Self Calibration Hours]: recalibrates every %d hours\n", hours)
	return true
}

func checkSinglePointCorrection(sensor *commander.Sensor, log io.Writer) bool {
	ready, err := sensor.GetSinglePointCorrectionReady()
	if err != nil {
		fmt.Fprintf(log, "[Single Point Correction]: %v\n", err)
		return false
	}

	if ready {
		fmt.Fprintf(log, "[Single Point Correction]: no correction in progress\n")
	} else {
		fmt.Fprintf(log, "[Single Point Correction]: correction still running\n")
	}
	return true
}

func openSelfCalibration(sensor *commander.Sensor, log io.Writer) bool {
	fmt.Fprintf(log, "[Open Self Calibration]: sending command\n")
	if err := sensor.OpenSelfCalibration(); err != nil {
		fmt.Fprintf(log, "[Open Self Calibration]: %v\n", err)
		return false
	}
	fmt.Fprintf(log, "[Open Self Calibration]: acknowledged\n")
	return true
}

func closeSelfCalibration(sensor *commander.Sensor, log io.Writer) bool {
	fmt.Fprintf(log, "[Close Self Calibration]: sending command\n")
	if err := sensor.CloseSelfCalibration(); err != nil {
		fmt.Fprintf(log, "[Close Self Calibration]: %v\n", err)
		return false
	}
	fmt.Fprintf(log, "[Close Self Calibration]: acknowledged\n")
	return true
}

// runOperations runs the selected operations in table order and reports progress
// on ch. Result indices count selected operations only.
func runOperations(sensor *commander.Sensor, selected map[int]struct{}, ch chan<- any) {
	w := &chanWriter{ch: ch}
	resultIdx := 0
	for idx, op := range availableOperations {
		if op.run == nil {
			continue
		}
		if _, ok := selected[idx]; !ok {
			continue
		}

		ch <- OperationStartMsg{Index: resultIdx}
		success := op.run(sensor, w)
		ch <- OperationResultMsg{Index: resultIdx, Success: success}
		resultIdx++
	}
}
