package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
)

// interactiveNames 是交互式命令的名称和别名
var interactiveNames = []string{"interactive", "i", "shell"}

// interactiveCmd 表示交互式命令，用于启动一个REPL
var interactiveCmd = &cobra.Command{
	Use:   interactiveNames[0],
	Short: "Start an interactive session",
	Long: `Start an interactive session with the MRI queue CLI.
Commands can be entered directly at the prompt.
Type 'exit' or 'quit' to exit, or press Ctrl+C.`,
	Aliases: interactiveNames[1:],
	Run: func(cmd *cobra.Command, args []string) {
		runInteractiveMode(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractiveMode(in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "MRI Queue CLI Interactive Mode")
	fmt.Fprintln(out, "Type 'help' for available commands or 'exit' to quit")

	// 设置信号处理，捕获Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	doneChan, stop := watchInterrupt(sigChan, out)
	defer stop()

	scanner := bufio.NewScanner(in)

	for {
		// 检查是否应该退出
		select {
		case <-doneChan:
			return
		default:
			// 继续处理输入
		}

		// 使用自定义提示符
		fmt.Fprint(out, "mri> ")

		if !scanner.Scan() {
			break
		}

		// 读取用户输入
		input := strings.TrimSpace(scanner.Text())

		if input == "" {
			continue
		}

		if input == "exit" || input == "quit" {
			fmt.Fprintln(out, "Exiting...")
			break
		}

		// 解析并执行命令
		executeCommand(input, out)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(out, "Error reading input: %v\n", err)
	}
}

// watchInterrupt 在收到信号时关闭返回的channel
// stop 让监听协程退出，可以与信号同时发生，也可以多次调用
func watchInterrupt(sigChan <-chan os.Signal, out io.Writer) (<-chan struct{}, func()) {
	doneChan := make(chan struct{})
	stop := sync.OnceFunc(func() { close(doneChan) })

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(out, "\nReceived interrupt signal, exiting...")
			stop()
		case <-doneChan:
		}
	}()
	return doneChan, stop
}

func executeCommand(input string, out io.Writer) {
	// 使用shellwords解析命令行参数
	parser := shellwords.NewParser()
	args, err := parser.Parse(input)
	if err != nil {
		fmt.Fprintf(out, "Error parsing command: %v\n", err)
		return
	}

	if len(args) == 0 {
		return
	}

	// 交互模式中不允许嵌套交互模式
	for _, name := range interactiveNames {
		if args[0] == name {
			fmt.Fprintln(out, "Already in interactive mode")
			return
		}
	}

	// 使用根命令来查找和执行命令
	cmd := rootCmd
	cmd.SetArgs(args)
	cmd.SetOut(out)
	defer resetFlags(cmd)

	// 如果遇到错误，捕获错误而不是退出程序
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}
