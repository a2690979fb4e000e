package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hashweft/v1/configs"
	"github.com/hashweft/v1/internal/app"
)

const version = "1.0.0"

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "程序发生严重错误: %v\n", r)
			os.Exit(1)
		}
	}()

	var (
		configPath  string
		dataDir     string
		showHelp    bool
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "配置文件路径（未指定时使用内嵌默认配置）")
	flag.StringVar(&dataDir, "data-dir", "", "数据目录（覆盖配置中的 data_root）")
	flag.BoolVar(&showHelp, "help", false, "显示帮助信息")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.Parse()

	if showVersion {
		fmt.Printf("hashweft-node v%s\n", version)
		return
	}
	if showHelp {
		showHelpInfo()
		return
	}

	startOptions := buildStartOptions(configPath, dataDir)

	fmt.Println("正在启动 hashweft-node...")
	nodeApp, err := app.Start(startOptions...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "节点启动失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("节点启动成功，按 Ctrl+C 停止")
	nodeApp.Wait()
}

// buildStartOptions 由命令行参数构建启动选项
func buildStartOptions(configPath, dataDir string) []app.Option {
	var startOptions []app.Option
	if configPath != "" {
		startOptions = append(startOptions, app.WithConfigFile(configPath))
	} else {
		startOptions = append(startOptions, app.WithEmbeddedConfig(configs.GetDefaultConfig()))
	}
	if dataDir != "" {
		startOptions = append(startOptions, app.WithDataDir(dataDir))
	}
	return startOptions
}

// showHelpInfo 显示帮助信息
func showHelpInfo() {
	fmt.Println("hashweft-node - HashWeft DHT节点")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  hashweft-node [选项]")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  --config <path>     配置文件路径（未指定时使用内嵌默认配置）")
	fmt.Println("  --data-dir <path>   数据目录（覆盖配置中的 data_root）")
	fmt.Println("  --help              显示此帮助信息")
	fmt.Println("  --version           显示版本信息")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  # 零配置启动（随机端口，数据写入 ./data）")
	fmt.Println("  hashweft-node")
	fmt.Println()
	fmt.Println("  # 指定配置文件")
	fmt.Println("  hashweft-node --config ./my-node.json")
	fmt.Println()
	fmt.Println("  # 覆盖数据目录")
	fmt.Println("  hashweft-node --data-dir /var/lib/hashweft")
}
